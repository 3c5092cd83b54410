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

package sentinel

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/deckhouse/sentinel-role-labeler/internal/ctlerrors"
	"github.com/deckhouse/sentinel-role-labeler/internal/logger"
)

type Resolver struct {
	oracle      Oracle
	log         *logger.Logger
	address     string
	clusterName string
	passwordEnv string
	timeout     time.Duration
	lookupEnv   func(string) (string, bool)
}

// NewResolver returns a resolver asking oracle about clusterName.
// Every query is bounded by timeout; passwordEnv names the credential variable.
func NewResolver(
	oracle Oracle,
	log *logger.Logger,
	address string,
	clusterName string,
	passwordEnv string,
	timeout time.Duration,
) *Resolver {
	return &Resolver{
		oracle:      oracle,
		log:         log,
		address:     address,
		clusterName: clusterName,
		passwordEnv: passwordEnv,
		timeout:     timeout,
		lookupEnv:   os.LookupEnv,
	}
}

// WithEnvLookup replaces the environment lookup, for tests.
func (r *Resolver) WithEnvLookup(lookup func(string) (string, bool)) *Resolver {
	r.lookupEnv = lookup
	return r
}

// Resolve returns the pod name of the current master.
// Any failure is reported as ctlerrors.ErrMasterResolution.
func (r *Resolver) Resolve(ctx context.Context) (string, error) {
	r.log.Debug("[Resolve] getting master", "sentinel", r.address, "cluster", r.clusterName)

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	master, err := r.oracle.MasterOf(ctx, r.clusterName, r.credential())
	if err != nil {
		return "", ctlerrors.ErrMasterResolutionf("asking %s for master of %q: %w", r.address, r.clusterName, err)
	}
	r.log.Debug("[Resolve] sentinel reply", "address", master.Address)

	name, err := PodNameFromAddress(master.Address)
	if err != nil {
		return "", ctlerrors.ErrMasterResolutionf("master of %q reported by %s: %w", r.clusterName, r.address, err)
	}
	r.log.Debug("[Resolve] master pod", "pod", name)

	return name, nil
}

func (r *Resolver) credential() *Credential {
	if r.passwordEnv == "" {
		return nil
	}
	password, ok := r.lookupEnv(r.passwordEnv)
	if !ok {
		return nil
	}
	return &Credential{Password: password}
}

// PodNameFromAddress takes the first DNS label of a fully qualified address,
// e.g. "redis-1.redis-headless.redis.svc.cluster.local" -> "redis-1".
func PodNameFromAddress(address string) (string, error) {
	address = strings.TrimSpace(address)
	name, _, _ := strings.Cut(address, ".")
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("cannot take a pod name from address %q", address)
	}
	return name, nil
}
