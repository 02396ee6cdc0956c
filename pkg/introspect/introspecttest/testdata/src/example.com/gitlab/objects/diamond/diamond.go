package diamond

import (
	"example.com/gitlab/base"
	"example.com/gitlab/mixins"
)

type Item struct{}

func (i *Item) Attrs() map[string]any { return nil }

type ItemManager struct {
	mixins.EditMixin
	mixins.DeleteMixin
	objCls *Item
}

func (m *ItemManager) Get(id string, opts ...base.RequestOption) (*Item, error) {
	obj, err := m.DeleteMixin.Get(id, opts...)
	if err != nil {
		return nil, err
	}
	return obj.(*Item), nil
}
