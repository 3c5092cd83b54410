/*
Copyright 2026 Flant JSC

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package members_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes/scheme"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/client/fake"
	"sigs.k8s.io/controller-runtime/pkg/client/interceptor"

	"github.com/deckhouse/sentinel-role-labeler/internal/ctlerrors"
	"github.com/deckhouse/sentinel-role-labeler/internal/logger"
	"github.com/deckhouse/sentinel-role-labeler/internal/members"
)

const roleKey = "redis.io/role"

func pod(namespace, name string, lbls map[string]string) *corev1.Pod {
	return &corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{
			Name:      name,
			Namespace: namespace,
			Labels:    lbls,
		},
	}
}

var _ = Describe("Lister", func() {
	var (
		clientBuilder *fake.ClientBuilder
		cl            client.WithWatch
		selector      string
	)

	BeforeEach(func() {
		selector = "app.kubernetes.io/app=redis"
		clientBuilder = fake.NewClientBuilder().WithScheme(scheme.Scheme)
	})

	JustBeforeEach(func() {
		cl = clientBuilder.Build()
	})

	list := func(ctx context.Context) ([]members.Member, error) {
		return members.NewLister(cl, &logger.Logger{}, "redis", selector, roleKey).List(ctx)
	}

	When("no pods exist", func() {
		It("returns an empty list without error", func(ctx SpecContext) {
			ms, err := list(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(ms).To(BeEmpty())
		})
	})

	When("pods exist in several namespaces with several labels", func() {
		BeforeEach(func() {
			app := map[string]string{"app.kubernetes.io/app": "redis"}
			clientBuilder.WithObjects(
				pod("redis", "redis-0", map[string]string{"app.kubernetes.io/app": "redis", roleKey: "master"}),
				pod("redis", "redis-1", app),
				pod("redis", "redis-2", app),
				pod("redis", "sentinel-0", map[string]string{"app.kubernetes.io/app": "sentinel"}),
				pod("other", "redis-9", app),
			)
		})

		It("returns only matching pods of the namespace", func(ctx SpecContext) {
			ms, err := list(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(members.Names(ms)).To(ConsistOf("redis-0", "redis-1", "redis-2"))
		})

		It("reports the observed role", func(ctx SpecContext) {
			ms, err := list(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(ms).To(ContainElement(members.Member{Name: "redis-0", ObservedRole: "master"}))
			Expect(ms).To(ContainElement(members.Member{Name: "redis-1"}))
		})

		When("the selector uses set-based syntax", func() {
			BeforeEach(func() {
				selector = "app.kubernetes.io/app in (redis,sentinel)"
			})

			It("honors it", func(ctx SpecContext) {
				ms, err := list(ctx)
				Expect(err).NotTo(HaveOccurred())
				Expect(members.Names(ms)).To(ConsistOf("redis-0", "redis-1", "redis-2", "sentinel-0"))
			})
		})
	})

	When("the selector is malformed", func() {
		BeforeEach(func() {
			selector = "app in ("
		})

		It("fails with a discovery error", func(ctx SpecContext) {
			_, err := list(ctx)
			Expect(err).To(MatchError(ctlerrors.ErrDiscovery))
		})
	})

	When("the API fails", func() {
		apiErr := errors.New("connection refused")

		BeforeEach(func() {
			clientBuilder.WithInterceptorFuncs(interceptor.Funcs{
				List: func(_ context.Context, _ client.WithWatch, _ client.ObjectList, _ ...client.ListOption) error {
					return apiErr
				},
			})
		})

		It("wraps the cause in a discovery error", func(ctx SpecContext) {
			_, err := list(ctx)
			Expect(err).To(MatchError(ctlerrors.ErrDiscovery))
			Expect(err).To(MatchError(apiErr))
		})
	})
})
