// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"testing"

	"github.com/google/uuid"

	"themepress/internal/models"
)

func TestThemeCreateAndFind(t *testing.T) {
	db := testDB(t)
	s := NewThemeStore(db)
	t.Cleanup(func() { cleanThemes(t, db, "test-theme-create") })

	created, err := s.Create(&models.Theme{Name: "test-theme-create"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.Key == uuid.Nil {
		t.Error("no public key generated on create")
	}
	if created.CompilerVersion != 0 {
		t.Errorf("new theme compiler version = %d, want 0", created.CompilerVersion)
	}

	byID, err := s.FindByID(created.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if byID == nil || byID.Name != "test-theme-create" {
		t.Fatalf("FindByID = %+v", byID)
	}

	byKey, err := s.FindByKey(created.Key.String())
	if err != nil {
		t.Fatalf("FindByKey: %v", err)
	}
	if byKey == nil || byKey.ID != created.ID {
		t.Fatalf("FindByKey = %+v", byKey)
	}
}

func TestThemeFindMissing(t *testing.T) {
	db := testDB(t)
	s := NewThemeStore(db)

	theme, err := s.FindByID(-1)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if theme != nil {
		t.Errorf("FindByID(-1) = %+v, want nil", theme)
	}

	theme, err = s.FindByKey(uuid.New().String())
	if err != nil {
		t.Fatalf("FindByKey: %v", err)
	}
	if theme != nil {
		t.Errorf("FindByKey(random) = %+v, want nil", theme)
	}
}

func TestThemeChildEdges(t *testing.T) {
	db := testDB(t)
	s := NewThemeStore(db)
	t.Cleanup(func() { cleanThemes(t, db, "test-edge-parent", "test-edge-child-a", "test-edge-child-b") })

	parent, err := s.Create(&models.Theme{Name: "test-edge-parent"})
	if err != nil {
		t.Fatalf("Create parent: %v", err)
	}
	childA, err := s.Create(&models.Theme{Name: "test-edge-child-a"})
	if err != nil {
		t.Fatalf("Create child: %v", err)
	}
	childB, err := s.Create(&models.Theme{Name: "test-edge-child-b"})
	if err != nil {
		t.Fatalf("Create child: %v", err)
	}

	if err := s.AddChild(parent.ID, childA.ID); err != nil {
		t.Fatalf("AddChild: %v", err)
	}
	if err := s.AddChild(parent.ID, childB.ID); err != nil {
		t.Fatalf("AddChild: %v", err)
	}

	children, err := s.ChildrenOf([]int64{parent.ID})
	if err != nil {
		t.Fatalf("ChildrenOf: %v", err)
	}
	if len(children) != 2 {
		t.Fatalf("got %d children, want 2", len(children))
	}
	// Insertion order is the traversal order.
	if children[0].ID != childA.ID || children[1].ID != childB.ID {
		t.Errorf("children order = [%d %d], want [%d %d]", children[0].ID, children[1].ID, childA.ID, childB.ID)
	}

	if err := s.RemoveChild(parent.ID, childA.ID); err != nil {
		t.Fatalf("RemoveChild: %v", err)
	}
	children, err = s.ChildrenOf([]int64{parent.ID})
	if err != nil {
		t.Fatalf("ChildrenOf: %v", err)
	}
	if len(children) != 1 || children[0].ID != childB.ID {
		t.Errorf("after remove: %+v", children)
	}
}

func TestThemeListEnabledOrderedByName(t *testing.T) {
	db := testDB(t)
	s := NewThemeStore(db)
	t.Cleanup(func() { cleanThemes(t, db, "test-enabled-zz", "test-enabled-aa", "test-enabled-off") })

	zz, err := s.Create(&models.Theme{Name: "test-enabled-zz", Enabled: true})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	aa, err := s.Create(&models.Theme{Name: "test-enabled-aa", Enabled: true})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := s.Create(&models.Theme{Name: "test-enabled-off"}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	themes, err := s.ListEnabled()
	if err != nil {
		t.Fatalf("ListEnabled: %v", err)
	}

	var ours []int64
	for _, th := range themes {
		if th.Name == "test-enabled-zz" || th.Name == "test-enabled-aa" {
			ours = append(ours, th.ID)
		}
		if th.Name == "test-enabled-off" {
			t.Error("disabled theme listed as enabled")
		}
	}
	if len(ours) != 2 || ours[0] != aa.ID || ours[1] != zz.ID {
		t.Errorf("enabled order = %v, want [%d %d]", ours, aa.ID, zz.ID)
	}
}

func TestThemeSettersAndDelete(t *testing.T) {
	db := testDB(t)
	s := NewThemeStore(db)
	schemes := NewColorSchemeStore(db)
	t.Cleanup(func() {
		cleanThemes(t, db, "test-theme-setters")
		cleanColorSchemes(t, db, "test-theme-setters-scheme")
	})

	theme, err := s.Create(&models.Theme{Name: "test-theme-setters"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	scheme, err := schemes.Create(&models.ColorScheme{
		Name:   "test-theme-setters-scheme",
		Colors: map[string]string{"primary": "222222"},
	})
	if err != nil {
		t.Fatalf("Create scheme: %v", err)
	}

	if err := s.SetEnabled(theme.ID, true); err != nil {
		t.Fatalf("SetEnabled: %v", err)
	}
	if err := s.SetColorScheme(theme.ID, &scheme.ID); err != nil {
		t.Fatalf("SetColorScheme: %v", err)
	}
	if err := s.SetCompilerVersion(theme.ID, 5); err != nil {
		t.Fatalf("SetCompilerVersion: %v", err)
	}

	got, err := s.FindByID(theme.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if !got.Enabled || got.ColorSchemeID == nil || *got.ColorSchemeID != scheme.ID || got.CompilerVersion != 5 {
		t.Errorf("after setters: %+v", got)
	}

	if err := s.Delete(theme.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	got, err = s.FindByID(theme.ID)
	if err != nil {
		t.Fatalf("FindByID after delete: %v", err)
	}
	if got != nil {
		t.Error("deleted theme still found")
	}
}
