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

package kubeclient

import (
	"fmt"

	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"

	"github.com/deckhouse/sentinel-role-labeler/internal/config"
)

const userAgent = "sentinel-role-labeler"

// RestConfig builds the API server config from the kubeconfig file when one is
// given, otherwise from the in-cluster service account.
func RestConfig(opts *config.Options) (*rest.Config, error) {
	var (
		cfg *rest.Config
		err error
	)
	if opts.KubeconfigFile != "" {
		cfg, err = clientcmd.BuildConfigFromFlags("", opts.KubeconfigFile)
	} else {
		cfg, err = rest.InClusterConfig()
	}
	if err != nil {
		return nil, fmt.Errorf("config kubernetes error %w", err)
	}

	if opts.SkipTLSVerify {
		cfg.Insecure = true
		cfg.CAData = nil
		cfg.CAFile = ""
	}

	// a single API call must not outlive one cycle
	cfg.Timeout = opts.PollInterval()
	cfg.UserAgent = userAgent

	return cfg, nil
}
