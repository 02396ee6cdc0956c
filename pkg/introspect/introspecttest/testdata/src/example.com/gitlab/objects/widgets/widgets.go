package widgets

import (
	"example.com/gitlab/base"
	"example.com/gitlab/mixins"
)

type Widget struct{}

func (w *Widget) Attrs() map[string]any { return nil }

type WidgetManager struct {
	mixins.GetMixin
	objCls *Widget
}

func (m *WidgetManager) Get(id string, opts ...base.RequestOption) (*Widget, error) {
	obj, err := m.GetMixin.Get(id, opts...)
	if err != nil {
		return nil, err
	}
	return obj.(*Widget), nil
}

// PluginManager has no retrieval capability.
type PluginManager struct {
	mixins.ListMixin
	objCls *Widget
}

// ReadOnlyManager is not a struct.
type ReadOnlyManager interface {
	Get(id string) (*Widget, error)
}

// CacheManager is generic and never discovered.
type CacheManager[T any] struct {
	mixins.GetMixin
	objCls T
}

// SharedManager re-exports the base manager.
type SharedManager = base.RESTManager

type WidgetList struct {
	mixins.GetMixin
}
