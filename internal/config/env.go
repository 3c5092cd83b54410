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

package config

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/deckhouse/sentinel-role-labeler/internal/ctlerrors"
	"github.com/deckhouse/sentinel-role-labeler/internal/logger"
)

// LoadEnvFile loads EnvFile, when set, into the process environment. Variables already
// present are kept. Environment overrides are then re-read for options not given on fs.
func (o *Options) LoadEnvFile(fs *pflag.FlagSet) error {
	if o.EnvFile == "" {
		return nil
	}

	if err := godotenv.Load(o.EnvFile); err != nil {
		return ctlerrors.ErrInvalidConfigf("loading --env-file %s: %w", o.EnvFile, err)
	}

	if o.Loglevel == "" {
		o.Loglevel = logger.Verbosity(os.Getenv(LogLevelEnv))
	}
	if addr := os.Getenv(HealthProbeBindAddressEnvVar); addr != "" && !fs.Changed("health-probe-bind-address") {
		o.HealthProbeBindAddress = addr
	}
	if addr := os.Getenv(MetricsBindAddressEnvVar); addr != "" && !fs.Changed("metrics-bind-address") {
		o.MetricsBindAddress = addr
	}

	return nil
}
