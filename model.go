package adminform

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"gorm.io/gorm"
)

var ErrNotFound = errors.New("record not found")

// Model is a data-binding handle, read or write the entity on demand
type Model[T any] interface {
	Get() T
	Set(T)
}

type valueModel[T any] struct {
	v T
}

// Model hold the entity in memory
func NewModel[T any](v T) Model[T] {
	return &valueModel[T]{v: v}
}

func (M *valueModel[T]) Get() T  { return M.v }
func (M *valueModel[T]) Set(v T) { M.v = v }

// EntityModel load entity from database lazily, until `Detach`
//
//	m := NewEntityModel[User](db, 3)
//	u := m.Get() // SELECT ... WHERE id = 3
//	m.Detach()   // next Get select again
type EntityModel[T any] struct {
	db     *gorm.DB
	entity *entity

	pk     any
	object *T
	err    error
	// load tried, failed one is not tried again until Detach
	loaded bool
}

// pk is nil or zero for a new record
func NewEntityModel[T any](db *gorm.DB, pk any) *EntityModel[T] {
	if pk != nil && reflect.ValueOf(pk).IsZero() {
		pk = nil
	}

	var t T
	return &EntityModel[T]{
		db:     db,
		entity: newEntity(t),
		pk:     pk,
	}
}

// Get loaded object, a blank T when not found or failed. Check failure with `Err`
func (M *EntityModel[T]) Get() T {
	if !M.loaded {
		M.Load(context.Background())
	}
	if M.object == nil {
		var t T
		return t
	}
	return *M.object
}

// Replace object in memory, saved until `Save`
func (M *EntityModel[T]) Set(v T) {
	M.object = &v
	M.err = nil
	M.loaded = true
	if M.entity.pk == nil {
		return
	}
	if pk, zero := M.entity.valueOf(M.entity.pk, &v); !zero {
		M.pk = pk
	}
}

func (M *EntityModel[T]) Err() error { return M.err }

// New record has no primary key yet
func (M *EntityModel[T]) IsNew() bool {
	return M.pk == nil
}

func (M *EntityModel[T]) PK() any { return M.pk }

// Reset to a blank new record
func (M *EntityModel[T]) Reset() {
	var t T
	M.pk = nil
	M.object = &t
	M.err = nil
	M.loaded = true
}

// Load select the object again, the result is kept for `Get` and `Err`
func (M *EntityModel[T]) Load(ctx context.Context) error {
	M.object, M.err = M.load(ctx)
	M.loaded = true
	return M.err
}

func (M *EntityModel[T]) load(ctx context.Context) (*T, error) {
	var t T
	if M.pk == nil || M.entity.pk == nil {
		return &t, nil
	}

	err := M.db.WithContext(ctx).First(&t, M.where()).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%s %v: %w", M.entity.name(), M.pk, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Forget loaded object, keep primary key
func (M *EntityModel[T]) Detach() {
	M.object = nil
	M.err = nil
	M.loaded = false
}

// Insert or update object, primary key is taken after insert
func (M *EntityModel[T]) Save(ctx context.Context) error {
	if M.object == nil {
		return nil
	}
	if err := M.db.WithContext(ctx).Save(M.object).Error; err != nil {
		return err
	}
	if M.entity.pk == nil {
		return nil
	}
	if pk, zero := M.entity.valueOf(M.entity.pk, M.object); !zero {
		M.pk = pk
	}
	return nil
}

func (M *EntityModel[T]) Delete(ctx context.Context) error {
	if M.pk == nil || M.entity.pk == nil {
		return fmt.Errorf("%s without primary key: %w", M.entity.name(), ErrNotFound)
	}

	var t T
	rc := M.db.WithContext(ctx).Where(M.where()).Delete(&t)
	if rc.Error != nil {
		return rc.Error
	}
	if rc.RowsAffected == 0 {
		return fmt.Errorf("%s %v: %w", M.entity.name(), M.pk, ErrNotFound)
	}
	M.Reset()
	return nil
}

func (M *EntityModel[T]) where() map[string]any {
	return map[string]any{M.entity.pk.DBName: M.pk}
}
