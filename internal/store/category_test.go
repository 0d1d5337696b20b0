// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"testing"
	"time"
)

func TestCategoryCreateSlugifiesName(t *testing.T) {
	db := testDB(t)
	s := NewCategoryStore(db)
	t.Cleanup(func() { cleanCategories(t, db, "test-cat-hello-world") })

	c, err := s.Create("Test Cat: Hello, World!")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if c.Slug != "test-cat-hello-world" {
		t.Errorf("slug = %q, want %q", c.Slug, "test-cat-hello-world")
	}
	if c.BackgroundURL != nil {
		t.Error("new category has a background")
	}
}

func TestCategoryBackgroundsRollup(t *testing.T) {
	db := testDB(t)
	s := NewCategoryStore(db)
	t.Cleanup(func() { cleanCategories(t, db, "test-bg-zebra", "test-bg-aardvark", "test-bg-none") })

	zebra, err := s.Create("test bg zebra")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	aardvark, err := s.Create("test bg aardvark")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := s.Create("test bg none"); err != nil {
		t.Fatalf("Create: %v", err)
	}

	url := "/uploads/bg.png"
	if err := s.SetBackground(zebra.ID, &url); err != nil {
		t.Fatalf("SetBackground: %v", err)
	}
	if err := s.SetBackground(aardvark.ID, &url); err != nil {
		t.Fatalf("SetBackground: %v", err)
	}

	withBG, err := s.WithBackgrounds()
	if err != nil {
		t.Fatalf("WithBackgrounds: %v", err)
	}

	var ours []string
	for _, c := range withBG {
		switch c.Slug {
		case "test-bg-zebra", "test-bg-aardvark":
			ours = append(ours, c.Slug)
		case "test-bg-none":
			t.Error("category without a background listed")
		}
	}
	if len(ours) != 2 || ours[0] != "test-bg-aardvark" || ours[1] != "test-bg-zebra" {
		t.Errorf("slug order = %v", ours)
	}

	last, err := s.LastBackgroundUpdate()
	if err != nil {
		t.Fatalf("LastBackgroundUpdate: %v", err)
	}
	if last == 0 {
		t.Error("rollup is zero with backgrounds present")
	}
	if delta := time.Now().Unix() - last; delta < 0 || delta > 60 {
		t.Errorf("rollup epoch %d not near now", last)
	}

	// Clearing the background removes the category from the rollup set.
	if err := s.SetBackground(zebra.ID, nil); err != nil {
		t.Fatalf("SetBackground clear: %v", err)
	}
	withBG, err = s.WithBackgrounds()
	if err != nil {
		t.Fatalf("WithBackgrounds: %v", err)
	}
	for _, c := range withBG {
		if c.Slug == "test-bg-zebra" {
			t.Error("cleared category still in rollup")
		}
	}
}

func TestCategorySetBackgroundMissing(t *testing.T) {
	db := testDB(t)
	s := NewCategoryStore(db)

	url := "/x.png"
	if err := s.SetBackground(-1, &url); err == nil {
		t.Error("SetBackground on missing category did not error")
	}
}
