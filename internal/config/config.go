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
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"k8s.io/apimachinery/pkg/labels"

	"github.com/deckhouse/sentinel-role-labeler/internal/ctlerrors"
	"github.com/deckhouse/sentinel-role-labeler/internal/logger"
)

const (
	LogLevelEnv                   = "LOG_LEVEL"
	HealthProbeBindAddressEnvVar  = "HEALTH_PROBE_BIND_ADDRESS"
	MetricsBindAddressEnvVar      = "METRICS_BIND_ADDRESS"
	DefaultHealthProbeBindAddress = ":4271"
	DefaultMetricsBindAddress     = ":4272"

	DefaultNamespace     = "redis"
	DefaultPodSelector   = "app.kubernetes.io/app=redis"
	DefaultClusterName   = "mymaster"
	DefaultSentinelPort  = 26379
	DefaultPasswordEnv   = "REDIS_MASTER_PASSWORD"
	DefaultClusterDomain = "cluster.local"
	DefaultCompanyDomain = "redis.io"
	DefaultUpdatePeriod  = 60
	DefaultRedisCLIPath  = "redis-cli"
	LeaderElectionID     = "sentinel-role-labeler"
)

// ErrorPolicy decides what the loop does after a failed cycle.
type ErrorPolicy string

const (
	// ErrorPolicyResume keeps running cycles at the normal interval.
	ErrorPolicyResume ErrorPolicy = "resume"
	// ErrorPolicyHalt stops running cycles until the process is restarted.
	ErrorPolicyHalt ErrorPolicy = "halt"
)

// SentinelClient selects the oracle client implementation.
type SentinelClient string

const (
	SentinelClientProtocol SentinelClient = "protocol"
	SentinelClientCLI      SentinelClient = "cli"
)

type Options struct {
	DryRun          bool
	Namespace       string
	PodSelector     string
	ClusterName     string
	HeadlessSvcName string
	SentinelHost    string
	SentinelPort    int
	PasswordEnv     string
	ClusterDomain   string
	CompanyDomain   string
	UpdatePeriodSec int
	Verbose         bool
	Loglevel        logger.Verbosity
	KubeconfigFile  string
	SkipTLSVerify   bool
	OnError         ErrorPolicy
	SentinelClient  SentinelClient
	RedisCLIPath    string
	SkipUnchanged   bool
	EnvFile         string

	LeaderElection         bool
	HealthProbeBindAddress string
	MetricsBindAddress     string
}

// NewDefaultOptions returns options populated with defaults and environment overrides.
func NewDefaultOptions() *Options {
	opts := &Options{
		Namespace:              DefaultNamespace,
		PodSelector:            DefaultPodSelector,
		ClusterName:            DefaultClusterName,
		SentinelPort:           DefaultSentinelPort,
		PasswordEnv:            DefaultPasswordEnv,
		ClusterDomain:          DefaultClusterDomain,
		CompanyDomain:          DefaultCompanyDomain,
		UpdatePeriodSec:        DefaultUpdatePeriod,
		OnError:                ErrorPolicyResume,
		SentinelClient:         SentinelClientProtocol,
		RedisCLIPath:           DefaultRedisCLIPath,
		HealthProbeBindAddress: DefaultHealthProbeBindAddress,
		MetricsBindAddress:     DefaultMetricsBindAddress,
	}

	opts.Loglevel = logger.Verbosity(os.Getenv(LogLevelEnv))

	if addr := os.Getenv(HealthProbeBindAddressEnvVar); addr != "" {
		opts.HealthProbeBindAddress = addr
	}
	if addr := os.Getenv(MetricsBindAddressEnvVar); addr != "" {
		opts.MetricsBindAddress = addr
	}

	return opts
}

// AddFlags binds the options to fs.
func (o *Options) AddFlags(fs *pflag.FlagSet) {
	fs.BoolVar(&o.DryRun, "dry-run", o.DryRun, "Only log the labels that would be applied")
	fs.StringVar(&o.Namespace, "namespace", o.Namespace, "Namespace of the store pods and the sentinel service")
	fs.StringVar(&o.PodSelector, "pod-selector", o.PodSelector, "Label selector of the store pods")
	fs.StringVar(&o.ClusterName, "cluster-name", o.ClusterName, "Master name tracked by sentinel")
	fs.StringVar(&o.HeadlessSvcName, "headless-svc-name", o.HeadlessSvcName, "Headless service name used to build the sentinel FQDN")
	fs.StringVar(&o.SentinelHost, "sentinel-host", o.SentinelHost, "Sentinel host; overrides the name built from --headless-svc-name")
	fs.IntVar(&o.SentinelPort, "sentinel-port", o.SentinelPort, "Sentinel port")
	fs.StringVar(&o.PasswordEnv, "password-env", o.PasswordEnv, "Environment variable holding the sentinel password")
	fs.StringVar(&o.ClusterDomain, "cluster-domain", o.ClusterDomain, "Kubernetes cluster DNS domain")
	fs.StringVar(&o.CompanyDomain, "company-domain", o.CompanyDomain, "Prefix of the role label key (<domain>/role)")
	fs.IntVar(&o.UpdatePeriodSec, "update-period", o.UpdatePeriodSec, "Seconds between cycles; also bounds one sentinel query")
	fs.BoolVar(&o.Verbose, "verbose", o.Verbose, "Enable debug logging")
	fs.StringVar(&o.KubeconfigFile, "config-file", o.KubeconfigFile, "Kubeconfig file; in-cluster credentials are used when empty")
	fs.BoolVar(&o.SkipTLSVerify, "insecure-skip-tls-verify", o.SkipTLSVerify, "Do not verify the API server certificate")
	fs.Var(newEnumValue(&o.OnError, ErrorPolicyResume, ErrorPolicyHalt), "on-error", "Behavior after a failed cycle: resume|halt")
	fs.Var(newEnumValue(&o.SentinelClient, SentinelClientProtocol, SentinelClientCLI), "sentinel-client", "Sentinel client: protocol|cli")
	fs.StringVar(&o.RedisCLIPath, "redis-cli-path", o.RedisCLIPath, "redis-cli binary used by --sentinel-client=cli")
	fs.BoolVar(&o.SkipUnchanged, "skip-unchanged", o.SkipUnchanged, "Do not patch pods whose role label is already correct")
	fs.StringVar(&o.EnvFile, "env-file", o.EnvFile, "Optional dotenv file loaded at startup")
	fs.BoolVar(&o.LeaderElection, "leader-elect", o.LeaderElection, "Run cycles only on the elected replica")
	fs.StringVar(&o.HealthProbeBindAddress, "health-probe-bind-address", o.HealthProbeBindAddress, "Health probe bind address")
	fs.StringVar(&o.MetricsBindAddress, "metrics-bind-address", o.MetricsBindAddress, "Metrics bind address, 0 disables the server")
}

// Validate checks option consistency. It must be called after flags are parsed.
func (o *Options) Validate() error {
	if o.Namespace == "" {
		return ctlerrors.ErrInvalidConfigf("--namespace must not be empty")
	}
	if _, err := labels.Parse(o.PodSelector); err != nil {
		return ctlerrors.ErrInvalidConfigf("--pod-selector %q: %w", o.PodSelector, err)
	}
	if o.ClusterName == "" {
		return ctlerrors.ErrInvalidConfigf("--cluster-name must not be empty")
	}
	if o.SentinelHost == "" && o.HeadlessSvcName == "" {
		return ctlerrors.ErrInvalidConfigf("either --headless-svc-name or --sentinel-host is required")
	}
	if o.SentinelPort <= 0 || o.SentinelPort > 65535 {
		return ctlerrors.ErrInvalidConfigf("--sentinel-port %d is out of range", o.SentinelPort)
	}
	if o.UpdatePeriodSec <= 0 {
		return ctlerrors.ErrInvalidConfigf("--update-period must be positive, got %d", o.UpdatePeriodSec)
	}
	if o.CompanyDomain == "" {
		return ctlerrors.ErrInvalidConfigf("--company-domain must not be empty")
	}
	if o.SentinelClient == SentinelClientCLI && o.RedisCLIPath == "" {
		return ctlerrors.ErrInvalidConfigf("--redis-cli-path must not be empty with --sentinel-client=cli")
	}
	if _, err := o.LogVerbosity(); err != nil {
		return ctlerrors.ErrInvalidConfigf("%s: %w", LogLevelEnv, err)
	}
	return nil
}

// LogVerbosity resolves the logger level: LOG_LEVEL wins, then --verbose, then info.
func (o *Options) LogVerbosity() (logger.Verbosity, error) {
	if o.Loglevel != "" {
		if _, err := strconv.Atoi(string(o.Loglevel)); err != nil {
			return "", fmt.Errorf("level %q is not a number", o.Loglevel)
		}
		return o.Loglevel, nil
	}
	if o.Verbose {
		return logger.DebugLevel, nil
	}
	return logger.InfoLevel, nil
}

// PollInterval is the pause between cycles and the upper bound of one sentinel query.
func (o *Options) PollInterval() time.Duration {
	return time.Duration(o.UpdatePeriodSec) * time.Second
}

// SentinelAddress returns host:port of the sentinel service.
func (o *Options) SentinelAddress() string {
	host := o.SentinelHost
	if host == "" {
		host = fmt.Sprintf("%s.%s.svc.%s", o.HeadlessSvcName, o.Namespace, o.ClusterDomain)
	}
	return net.JoinHostPort(host, strconv.Itoa(o.SentinelPort))
}

// RoleLabelKey returns the label key written on every member pod.
func (o *Options) RoleLabelKey() string {
	return strings.TrimSuffix(o.CompanyDomain, "/") + "/role"
}

type enumValue[T ~string] struct {
	target  *T
	allowed []T
}

func newEnumValue[T ~string](target *T, allowed ...T) *enumValue[T] {
	return &enumValue[T]{target: target, allowed: allowed}
}

// String is an implementation of the pflag.Value interface
func (e *enumValue[T]) String() string {
	return string(*e.target)
}

// Set is an implementation of the pflag.Value interface
func (e *enumValue[T]) Set(value string) error {
	for _, a := range e.allowed {
		if string(a) == value {
			*e.target = a
			return nil
		}
	}
	return fmt.Errorf("must be one of %v", e.allowed)
}

// Type is an implementation of the pflag.Value interface
func (e *enumValue[T]) Type() string {
	return "string"
}
