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

// Package members lists the store pods that take part in role labeling.
package members

import (
	"context"

	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/labels"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"github.com/deckhouse/sentinel-role-labeler/internal/ctlerrors"
	"github.com/deckhouse/sentinel-role-labeler/internal/logger"
)

// Member is one store pod. ObservedRole is the role label value seen at listing time.
type Member struct {
	Name         string
	ObservedRole string
}

type Lister struct {
	reader    client.Reader
	log       *logger.Logger
	namespace string
	selector  string
	roleKey   string
}

// NewLister returns a lister over reader. reader should be a live (uncached) API reader.
func NewLister(reader client.Reader, log *logger.Logger, namespace, selector, roleKey string) *Lister {
	return &Lister{
		reader:    reader,
		log:       log,
		namespace: namespace,
		selector:  selector,
		roleKey:   roleKey,
	}
}

// List returns the pods matching the selector. An empty result is not an error.
func (l *Lister) List(ctx context.Context) ([]Member, error) {
	sel, err := labels.Parse(l.selector)
	if err != nil {
		return nil, ctlerrors.ErrDiscoveryf("parsing selector %q: %w", l.selector, err)
	}

	l.log.Debug("[List] getting pods", "namespace", l.namespace, "selector", l.selector)

	pods := &corev1.PodList{}
	if err := l.reader.List(ctx, pods, client.InNamespace(l.namespace), client.MatchingLabelsSelector{Selector: sel}); err != nil {
		return nil, ctlerrors.ErrDiscoveryf("listing pods in %s by %q: %w", l.namespace, l.selector, err)
	}

	result := make([]Member, 0, len(pods.Items))
	for _, pod := range pods.Items {
		result = append(result, Member{
			Name:         pod.Name,
			ObservedRole: pod.Labels[l.roleKey],
		})
	}

	l.log.Debug("[List] found pods", "pods", Names(result))

	return result, nil
}

func Names(ms []Member) []string {
	names := make([]string, len(ms))
	for i, m := range ms {
		names[i] = m.Name
	}
	return names
}
