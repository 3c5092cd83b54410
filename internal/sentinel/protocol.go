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
	"errors"
	"fmt"

	rdb "github.com/redis/go-redis/v9"
)

type ProtocolOracle struct {
	addr string
}

var _ Oracle = (*ProtocolOracle)(nil)

func NewProtocolOracle(address string) *ProtocolOracle {
	return &ProtocolOracle{addr: address}
}

// MasterOf opens a short-lived connection per call, since the credential may change between calls.
func (o *ProtocolOracle) MasterOf(ctx context.Context, clusterName string, cred *Credential) (Master, error) {
	opts := &rdb.Options{
		Addr:                  o.addr,
		ContextTimeoutEnabled: true,
		MaxRetries:            -1,
		PoolSize:              1,
	}
	if cred != nil {
		opts.Password = cred.Password
	}

	sc := rdb.NewSentinelClient(opts)
	defer sc.Close()

	addr, err := sc.GetMasterAddrByName(ctx, clusterName).Result()
	switch {
	case errors.Is(err, rdb.Nil):
		return Master{}, fmt.Errorf("sentinel %s does not know master %q", o.addr, clusterName)
	case err != nil:
		return Master{}, fmt.Errorf("querying sentinel %s: %w", o.addr, err)
	case len(addr) == 0 || addr[0] == "":
		return Master{}, fmt.Errorf("sentinel %s returned an empty address for %q", o.addr, clusterName)
	}

	return Master{Address: addr[0]}, nil
}
