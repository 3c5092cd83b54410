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

package labeler

import (
	"context"

	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"github.com/deckhouse/sentinel-role-labeler/internal/config"
	"github.com/deckhouse/sentinel-role-labeler/internal/ctlerrors"
	"github.com/deckhouse/sentinel-role-labeler/internal/logger"
	"github.com/deckhouse/sentinel-role-labeler/internal/members"
)

type MemberLister interface {
	List(ctx context.Context) ([]members.Member, error)
}

type MasterResolver interface {
	Resolve(ctx context.Context) (string, error)
}

// CycleResult describes what one cycle saw and did.
type CycleResult struct {
	Members     []string
	Master      string
	Assignments []Assignment
	// Applied counts patches sent (or, in dry-run, that would be sent).
	Applied int
	Skipped int
	DryRun  bool

	// MasterMissing is set when the reported master pod does not exist.
	MasterMissing bool
}

type Reconciler struct {
	cl            client.Writer
	lister        MemberLister
	resolver      MasterResolver
	log           *logger.Logger
	namespace     string
	roleKey       string
	dryRun        bool
	skipUnchanged bool
}

func NewReconciler(
	cl client.Writer,
	lister MemberLister,
	resolver MasterResolver,
	log *logger.Logger,
	opts *config.Options,
) *Reconciler {
	return &Reconciler{
		cl:            cl,
		lister:        lister,
		resolver:      resolver,
		log:           log,
		namespace:     opts.Namespace,
		roleKey:       opts.RoleLabelKey(),
		dryRun:        opts.DryRun,
		skipUnchanged: opts.SkipUnchanged,
	}
}

// Cycle runs list, resolve and apply once. Errors carry a ctlerrors kind.
func (r *Reconciler) Cycle(ctx context.Context) (CycleResult, error) {
	res := CycleResult{DryRun: r.dryRun}

	ms, err := r.lister.List(ctx)
	if err != nil {
		return res, err
	}
	res.Members = members.Names(ms)

	if len(ms) == 0 {
		r.log.Info("[Cycle] no pods found", "namespace", r.namespace)
		return res, nil
	}
	r.log.Info("[Cycle] pods discovered", "count", len(ms), "pods", res.Members)

	master, err := r.resolver.Resolve(ctx)
	if err != nil {
		return res, err
	}
	res.Master = master
	r.log.Info("[Cycle] master resolved", "master", master)

	observed := make(map[string]string, len(ms))
	for _, m := range ms {
		observed[m.Name] = m.ObservedRole
	}
	_, masterListed := observed[master]
	if !masterListed {
		r.log.Warning("[Cycle] master reported by sentinel is not among the selected pods, labeling it anyway",
			"master", master, "pods", res.Members)
	}

	res.Assignments = Assign(ms, master)

	for _, a := range res.Assignments {
		if r.skipUnchanged {
			if role, ok := observed[a.Pod]; ok && role == string(a.Role) {
				r.log.Debug("[Cycle] label already set, skipping", "pod", a.Pod, "role", a.Role)
				res.Skipped++
				continue
			}
		}

		if r.dryRun {
			r.log.Info("[Cycle] would apply label", "pod", a.Pod, "label", r.roleKey, "role", a.Role)
			res.Applied++
			continue
		}

		if err := r.apply(ctx, a); err != nil {
			if a.Role == RoleMaster && !masterListed && apierrors.IsNotFound(err) {
				r.log.Warning("[Cycle] master pod does not exist, labeling the remaining pods", "master", a.Pod)
				res.MasterMissing = true
				continue
			}
			return res, err
		}
		res.Applied++
	}

	return res, nil
}

func (r *Reconciler) apply(ctx context.Context, a Assignment) error {
	patch, err := LabelPatch(r.roleKey, a.Role)
	if err != nil {
		return ctlerrors.ErrApplyf("pod %s/%s: %w", r.namespace, a.Pod, err)
	}

	pod := &corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{
			Namespace: r.namespace,
			Name:      a.Pod,
		},
	}

	r.log.Info("[Cycle] applying label", "pod", a.Pod, "label", r.roleKey, "role", a.Role)
	if err := r.cl.Patch(ctx, pod, patch); err != nil {
		return ctlerrors.ErrApplyf("patching %s on pod %s/%s: %w", r.roleKey, r.namespace, a.Pod, err)
	}
	labelsAppliedTotal.WithLabelValues(string(a.Role)).Inc()

	return nil
}
