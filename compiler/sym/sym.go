package sym

import (
	"tlog.app/go/errors"
)

type (
	// Table maps label names to byte addresses,
	// remembering the order of first definition.
	Table struct {
		addr  map[string]uint64
		order []string
	}
)

var (
	ErrDuplicate = errors.New("duplicate label")
	ErrUndefined = errors.New("undefined label")
)

func New() *Table {
	return &Table{
		addr: map[string]uint64{},
	}
}

func (t *Table) Define(name string, addr uint64) error {
	if _, ok := t.addr[name]; ok {
		return errors.Wrap(ErrDuplicate, "%v", name)
	}

	t.addr[name] = addr
	t.order = append(t.order, name)

	return nil
}

func (t *Table) Lookup(name string) (uint64, error) {
	a, ok := t.addr[name]
	if !ok {
		return 0, errors.Wrap(ErrUndefined, "%v", name)
	}

	return a, nil
}

func (t *Table) Contains(name string) bool {
	_, ok := t.addr[name]
	return ok
}

// Order returns label names in first-definition order.
func (t *Table) Order() []string { return t.order }
