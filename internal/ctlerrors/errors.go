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

package ctlerrors

import (
	"errors"
	"fmt"
)

// ErrDiscovery is returned when the member pods could not be listed.
var ErrDiscovery = errors.New("discovery error")

// ErrMasterResolution is returned when the sentinel could not name the master.
var ErrMasterResolution = errors.New("master resolution error")

// ErrApply is returned when a role label could not be applied to a pod.
var ErrApply = errors.New("apply error")

var ErrInvalidConfig = errors.New("invalid configuration")

func WrapErrorf(err error, format string, a ...any) error {
	return fmt.Errorf("%w: %w", err, fmt.Errorf(format, a...))
}

func ErrDiscoveryf(format string, a ...any) error {
	return WrapErrorf(ErrDiscovery, format, a...)
}

func ErrMasterResolutionf(format string, a ...any) error {
	return WrapErrorf(ErrMasterResolution, format, a...)
}

func ErrApplyf(format string, a ...any) error {
	return WrapErrorf(ErrApply, format, a...)
}

func ErrInvalidConfigf(format string, a ...any) error {
	return WrapErrorf(ErrInvalidConfig, format, a...)
}

// Kind returns a short label of the error kind, used for metrics and logs.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrDiscovery):
		return "discovery"
	case errors.Is(err, ErrMasterResolution):
		return "master_resolution"
	case errors.Is(err, ErrApply):
		return "apply"
	default:
		return "unknown"
	}
}
