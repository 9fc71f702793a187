// Copyright 2025 The Authors (see AUTHORS file)
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package usersync

// LocationMapper derives a local office location from a directory org-unit
// path. An unmapped path yields the empty string, never an error.
type LocationMapper interface {
	Location(orgUnitPath string) string
}

// DefaultLocations is the closed org-unit-to-location table used when no
// custom table is configured.
var DefaultLocations = map[string]string{
	"/一般":  "General Office",
	"/営業":  "Sales Office",
	"/開発":  "Development Office",
	"/管理":  "Admin Office",
	"/テスト": "Test Office",
}

// StaticLocationMapper maps org-unit paths through a fixed lookup table.
type StaticLocationMapper struct {
	table map[string]string
}

// NewStaticLocationMapper creates a mapper over the given table. A nil table
// falls back to DefaultLocations.
func NewStaticLocationMapper(table map[string]string) *StaticLocationMapper {
	if table == nil {
		table = DefaultLocations
	}
	return &StaticLocationMapper{table: table}
}

// Location returns the location mapped to the given org-unit path, or the
// empty string when the path is not in the table.
func (m *StaticLocationMapper) Location(orgUnitPath string) string {
	return m.table[orgUnitPath]
}
