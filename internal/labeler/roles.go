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
	"encoding/json"
	"fmt"

	"k8s.io/apimachinery/pkg/types"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"github.com/deckhouse/sentinel-role-labeler/internal/members"
)

type Role string

const (
	RoleMaster Role = "master"
	RoleSlave  Role = "slave"
)

type Assignment struct {
	Pod  string
	Role Role
}

func (a Assignment) String() string {
	return fmt.Sprintf("%s=%s", a.Pod, a.Role)
}

// Assign builds the role of every member. The master always comes first and
// is included even if it is not among ms.
func Assign(ms []members.Member, master string) []Assignment {
	result := make([]Assignment, 0, len(ms)+1)
	result = append(result, Assignment{Pod: master, Role: RoleMaster})
	for _, m := range ms {
		if m.Name == master {
			continue
		}
		result = append(result, Assignment{Pod: m.Name, Role: RoleSlave})
	}
	return result
}

// LabelPatch returns a JSON merge patch setting roleKey to role.
func LabelPatch(roleKey string, role Role) (client.Patch, error) {
	body, err := json.Marshal(map[string]any{
		"metadata": map[string]any{
			"labels": map[string]string{
				roleKey: string(role),
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling label patch: %w", err)
	}
	return client.RawPatch(types.MergePatchType, body), nil
}
