package store

import (
	"testing"
)

// backends runs f against every Store implementation.
func backends(t *testing.T, f func(t *testing.T, s Store)) {
	t.Run("Mem", func(t *testing.T) {
		f(t, NewMemStore())
	})
	t.Run("SQLite", func(t *testing.T) {
		s, err := NewSQLiteStore(":memory:")
		if err != nil {
			t.Fatalf("open sqlite: %v", err)
		}
		defer s.Close()
		f(t, s)
	})
}

func TestStoreBasics(t *testing.T) {
	backends(t, func(t *testing.T, s Store) {
		if _, ok, err := s.Get([]byte("missing")); err != nil || ok {
			t.Errorf("missing key: ok=%v err=%v", ok, err)
		}

		if err := s.Put([]byte("k"), []byte("v1")); err != nil {
			t.Fatalf("put: %v", err)
		}
		v, ok, err := s.Get([]byte("k"))
		if err != nil || !ok || string(v) != "v1" {
			t.Errorf("get: %q ok=%v err=%v", v, ok, err)
		}

		// Overwrite.
		if err := s.Put([]byte("k"), []byte("v2")); err != nil {
			t.Fatalf("put: %v", err)
		}
		v, _, _ = s.Get([]byte("k"))
		if string(v) != "v2" {
			t.Errorf("expected overwrite, got %q", v)
		}

		has, err := s.Has([]byte("k"))
		if err != nil || !has {
			t.Errorf("has: %v err=%v", has, err)
		}
		has, _ = s.Has([]byte("nope"))
		if has {
			t.Error("has reported a missing key")
		}
	})
}

func TestMemStoreCopies(t *testing.T) {
	s := NewMemStore()
	buf := []byte("value")
	s.Put([]byte("k"), buf)
	buf[0] = 'X'

	v, _, _ := s.Get([]byte("k"))
	if string(v) != "value" {
		t.Errorf("stored value aliased caller buffer: %q", v)
	}

	v[0] = 'Y'
	v2, _, _ := s.Get([]byte("k"))
	if string(v2) != "value" {
		t.Errorf("returned value aliased stored buffer: %q", v2)
	}
}

func TestMap(t *testing.T) {
	s := NewMemStore()
	a := NewMap(s, []byte{'a'})
	b := NewMap(s, []byte{'b'})

	a.Put([]byte("id"), []byte("asset"))
	b.Put([]byte("id"), []byte("balance"))

	v, ok, _ := a.Get([]byte("id"))
	if !ok || string(v) != "asset" {
		t.Errorf("prefix a: %q ok=%v", v, ok)
	}
	v, ok, _ = b.Get([]byte("id"))
	if !ok || string(v) != "balance" {
		t.Errorf("prefix b: %q ok=%v", v, ok)
	}

	has, _ := a.Has([]byte("other"))
	if has {
		t.Error("has reported a missing record")
	}
}

func TestCounter(t *testing.T) {
	s := NewMemStore()
	c := NewCounter(s, []byte{'w'})

	v, err := c.Get()
	if err != nil || v != 0 {
		t.Errorf("unset counter: %d err=%v", v, err)
	}

	v, err = c.Add(1)
	if err != nil || v != 1 {
		t.Errorf("first add: %d err=%v", v, err)
	}
	v, _ = c.Add(1)
	if v != 2 {
		t.Errorf("second add: %d", v)
	}

	if err := c.Set(10); err != nil {
		t.Fatalf("set: %v", err)
	}
	v, _ = c.Get()
	if v != 10 {
		t.Errorf("after set: %d", v)
	}
}

func TestValue(t *testing.T) {
	s := NewMemStore()
	v := NewValue(s, []byte{'n'})

	_, ok, _ := v.Get()
	if ok {
		t.Error("unset slot reported present")
	}
	v.Set([]byte("native"))
	b, ok, _ := v.Get()
	if !ok || string(b) != "native" {
		t.Errorf("slot: %q ok=%v", b, ok)
	}
}

func TestStagedCommit(t *testing.T) {
	base := NewMemStore()
	base.Put([]byte("existing"), []byte("old"))

	st := NewStaged(base)
	st.Put([]byte("new"), []byte("1"))
	st.Put([]byte("existing"), []byte("updated"))

	// Overlay reads see pending writes; base is untouched.
	v, ok, _ := st.Get([]byte("new"))
	if !ok || string(v) != "1" {
		t.Errorf("overlay read: %q ok=%v", v, ok)
	}
	if _, ok, _ := base.Get([]byte("new")); ok {
		t.Error("write leaked to base before commit")
	}
	v, _, _ = base.Get([]byte("existing"))
	if string(v) != "old" {
		t.Errorf("base mutated before commit: %q", v)
	}

	if err := st.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}
	v, _, _ = base.Get([]byte("existing"))
	if string(v) != "updated" {
		t.Errorf("after commit: %q", v)
	}
	v, _, _ = base.Get([]byte("new"))
	if string(v) != "1" {
		t.Errorf("after commit: %q", v)
	}
	if st.Len() != 0 {
		t.Errorf("overlay not cleared: %d pending", st.Len())
	}
}

func TestStagedDiscard(t *testing.T) {
	base := NewMemStore()
	st := NewStaged(base)
	st.Put([]byte("k"), []byte("v"))
	st.Discard()

	if base.Len() != 0 {
		t.Errorf("discarded write reached base: %d keys", base.Len())
	}
	if _, ok, _ := st.Get([]byte("k")); ok {
		t.Error("discarded write still visible")
	}
}

func TestStagedReadThrough(t *testing.T) {
	base := NewMemStore()
	base.Put([]byte("k"), []byte("base"))

	st := NewStaged(base)
	v, ok, _ := st.Get([]byte("k"))
	if !ok || string(v) != "base" {
		t.Errorf("read-through: %q ok=%v", v, ok)
	}

	has, _ := st.Has([]byte("k"))
	if !has {
		t.Error("has failed to read through")
	}

	st.Put([]byte("k"), []byte("pending"))
	v, _, _ = st.Get([]byte("k"))
	if string(v) != "pending" {
		t.Errorf("overlay should shadow base: %q", v)
	}
}

func TestSQLiteStorePersists(t *testing.T) {
	path := t.TempDir() + "/kv.db"

	s, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.Put([]byte("k"), []byte("durable")); err != nil {
		t.Fatalf("put: %v", err)
	}
	s.Close()

	s, err = NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	v, ok, err := s.Get([]byte("k"))
	if err != nil || !ok || string(v) != "durable" {
		t.Errorf("after reopen: %q ok=%v err=%v", v, ok, err)
	}
}
