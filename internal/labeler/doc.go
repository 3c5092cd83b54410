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

// Package labeler keeps the role label of store pods in line with the master
// reported by Sentinel.
//
// # Cycle
//
//  1. List member pods by selector. No pods: the cycle ends, Sentinel is not asked.
//  2. Ask Sentinel for the master. Failure: the cycle ends, nothing is patched.
//  3. Assign "master" to the reported pod and "slave" to every other member.
//     The reported pod is assigned even when it is not among the listed pods.
//  4. Merge-patch <domain>/role on every pod, master first. The first failed
//     patch ends the cycle, except NotFound on a master that was not listed:
//     that is logged and the other pods are still labeled. In dry-run mode
//     patches are only logged.
//
// # Loop
//
// Cycles run one at a time with a fixed pause between them. A failed cycle
// never stops the process. With the resume policy the next cycle runs after
// the usual pause; with the halt policy no further cycle runs until restart.
//
// Labels are overwritten every cycle unless skip-unchanged is enabled, in
// which case pods already carrying the right value are left alone.
package labeler
