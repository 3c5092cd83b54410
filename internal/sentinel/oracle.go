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

// Package sentinel resolves the current master of a Sentinel-managed cluster.
//
// The [Oracle] interface hides how Sentinel is queried. Two clients exist:
//   - [ProtocolOracle] speaks the Sentinel protocol through go-redis
//     (SENTINEL GET-MASTER-ADDR-BY-NAME).
//   - [CLIOracle] runs redis-cli and reads the fourth line of the
//     SENTINEL MASTER reply, which is the value of its "ip" field.
//
// [Resolver] turns the reported address into a pod name.
package sentinel

import (
	"context"
	"fmt"

	"github.com/deckhouse/sentinel-role-labeler/internal/config"
)

// Master is what an oracle reports about the current master.
type Master struct {
	// Address is the announced host of the master, normally the pod FQDN.
	Address string
}

// Credential authenticates against Sentinel. A nil *Credential means no auth.
type Credential struct {
	Password string
}

type Oracle interface {
	MasterOf(ctx context.Context, clusterName string, cred *Credential) (Master, error)
}

// NewOracle builds the oracle client selected in opts.
func NewOracle(opts *config.Options) (Oracle, error) {
	switch opts.SentinelClient {
	case config.SentinelClientProtocol:
		return NewProtocolOracle(opts.SentinelAddress()), nil
	case config.SentinelClientCLI:
		return NewCLIOracle(opts.RedisCLIPath, opts.SentinelAddress())
	default:
		return nil, fmt.Errorf("unknown sentinel client %q", opts.SentinelClient)
	}
}
