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
	"bufio"
	"bytes"
	"context"
	"fmt"
	"net"
	"os/exec"
	"strings"
	"time"
)

// masterReplyAddressLine is the 1-based line of `redis-cli sentinel master`
// output holding the master address: name, <name>, ip, <ip>, ...
const masterReplyAddressLine = 4

// cliWaitDelay bounds how long output pipes are drained after the process is killed.
const cliWaitDelay = time.Second

type CLIOracle struct {
	path string
	host string
	port string
}

var _ Oracle = (*CLIOracle)(nil)

func NewCLIOracle(path, address string) (*CLIOracle, error) {
	host, port, err := net.SplitHostPort(address)
	if err != nil {
		return nil, fmt.Errorf("splitting sentinel address %q: %w", address, err)
	}
	return &CLIOracle{path: path, host: host, port: port}, nil
}

func (o *CLIOracle) MasterOf(ctx context.Context, clusterName string, cred *Credential) (Master, error) {
	args := []string{"-h", o.host, "-p", o.port}
	if cred != nil {
		args = append(args, "-a", cred.Password, "--no-auth-warning")
	}
	args = append(args, "sentinel", "master", clusterName)

	cmd := exec.CommandContext(ctx, o.path, args...)
	cmd.WaitDelay = cliWaitDelay

	out, err := cmd.CombinedOutput()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return Master{}, fmt.Errorf("running %s: %w", o.path, ctxErr)
	}
	if err != nil {
		return Master{}, fmt.Errorf("running %s: %w: %s", o.path, err, strings.TrimSpace(string(out)))
	}

	line, err := ReplyLine(out, masterReplyAddressLine)
	if err != nil {
		return Master{}, err
	}

	return Master{Address: line}, nil
}

// ReplyLine returns the n-th (1-based) line of reply, trimmed.
// It fails when the reply is shorter or the line is blank.
func ReplyLine(reply []byte, n int) (string, error) {
	sc := bufio.NewScanner(bytes.NewReader(reply))
	for i := 1; sc.Scan(); i++ {
		if i < n {
			continue
		}
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			return "", fmt.Errorf("line %d of sentinel reply is empty", n)
		}
		return line, nil
	}
	if err := sc.Err(); err != nil {
		return "", fmt.Errorf("reading sentinel reply: %w", err)
	}
	return "", fmt.Errorf("sentinel reply has fewer than %d lines: %q", n, strings.TrimSpace(string(reply)))
}
