package settings

import (
	"example.com/gitlab/base"
	"example.com/gitlab/mixins"
)

type Settings struct{}

func (s *Settings) Attrs() map[string]any { return nil }

type SettingsManager struct {
	mixins.GetWithoutIDMixin
	objCls *Settings
}

func (m *SettingsManager) Get(opts ...base.RequestOption) (*Settings, error) {
	obj, err := m.GetWithoutIDMixin.Get(opts...)
	if err != nil {
		return nil, err
	}
	return obj.(*Settings), nil
}
