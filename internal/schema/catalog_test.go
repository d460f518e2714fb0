// Copyright 2025 InsightAI Project
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package schema

import "testing"

func TestMatchCatalog(t *testing.T) {
	tests := []struct {
		name        string
		descriptor  string
		expectMatch bool
	}{
		{
			name:        "full connection descriptor",
			descriptor:  "Host: 47.113.229.134, User: emote_user, Database: ai_boss, Description: Production database for ai_boss platform.",
			expectMatch: true,
		},
		{
			name:        "database name only",
			descriptor:  "ai_boss",
			expectMatch: true,
		},
		{
			name:        "uppercase trigger",
			descriptor:  "Database: AI_BOSS",
			expectMatch: true,
		},
		{
			name:        "host buried in unrelated text",
			descriptor:  "some warehouse at 47.113.229.134 with inventory data",
			expectMatch: true,
		},
		{
			name:        "table name hint",
			descriptor:  "contains the ai_draw_record table among others",
			expectMatch: true,
		},
		{
			name:        "username trigger",
			descriptor:  "User: emote_user",
			expectMatch: true,
		},
		{
			name:        "no trigger",
			descriptor:  "Host: 10.0.0.1, User: admin, Database: webshop, Description: Online store",
			expectMatch: false,
		},
		{
			name:        "empty descriptor",
			descriptor:  "",
			expectMatch: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tables, ok := MatchCatalog(tt.descriptor)
			if ok != tt.expectMatch {
				t.Fatalf("expected match=%v, got %v", tt.expectMatch, ok)
			}
			if !tt.expectMatch {
				if tables != nil {
					t.Errorf("expected nil tables on miss, got %d", len(tables))
				}
				return
			}
			if len(tables) != 6 {
				t.Errorf("expected 6 catalog tables, got %d", len(tables))
			}
		})
	}
}

func TestMatchCatalogTableContents(t *testing.T) {
	tables, ok := MatchCatalog("Host: 47.113.229.134, User: emote_user, Database: ai_boss, Description: prod")
	if !ok {
		t.Fatal("expected catalog match")
	}

	byName := make(map[string][]string)
	for _, table := range tables {
		byName[table.Name] = table.Columns
	}

	for _, name := range []string{"sys_user", "ai_draw_record", "ai_chat_record", "user_order", "sys_model", "user_vip_log"} {
		if _, exists := byName[name]; !exists {
			t.Errorf("expected table %q in catalog", name)
		}
	}

	sysUser := byName["sys_user"]
	if len(sysUser) != 14 {
		t.Errorf("expected 14 sys_user columns, got %d", len(sysUser))
	}
	if sysUser[0] != "user_id" || sysUser[len(sysUser)-1] != "vip_expire_time" {
		t.Errorf("sys_user columns out of order: %v", sysUser)
	}

	drawRecord := byName["ai_draw_record"]
	if len(drawRecord) != 13 {
		t.Errorf("expected 13 ai_draw_record columns, got %d", len(drawRecord))
	}
}

func TestMatchCatalogReturnsCopy(t *testing.T) {
	first, _ := MatchCatalog("ai_boss")
	first[0].Name = "mutated"
	first[0].Columns[0] = "mutated"

	second, _ := MatchCatalog("ai_boss")
	if second[0].Name != "sys_user" || second[0].Columns[0] != "user_id" {
		t.Error("catalog tables should not be shared between calls")
	}
}

func TestDefaultTables(t *testing.T) {
	tables := DefaultTables()
	if len(tables) != 2 {
		t.Fatalf("expected 2 default tables, got %d", len(tables))
	}
	if tables[0].Name != "users" || tables[1].Name != "orders" {
		t.Errorf("unexpected default table names: %v", Names(tables))
	}
	for _, table := range tables {
		if len(table.Columns) == 0 {
			t.Errorf("default table %q has no columns", table.Name)
		}
	}
}

func TestNames(t *testing.T) {
	tables := []Table{{Name: "a"}, {Name: "b"}}
	names := Names(tables)
	if len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Errorf("unexpected names: %v", names)
	}
}
