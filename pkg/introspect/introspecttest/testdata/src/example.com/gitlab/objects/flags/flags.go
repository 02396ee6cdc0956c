package flags

import (
	"example.com/gitlab/base"
	"example.com/gitlab/mixins"
)

type Flag struct{}

func (f *Flag) Attrs() map[string]any { return nil }

type FlagManager struct { // want `must define a "Get" method returning \*flags.Flag but found base.Optional\[\*flags.Flag\]`
	mixins.GetWithoutIDMixin
	objCls *Flag
}

func (m *FlagManager) Get(opts ...base.RequestOption) (base.Optional[*Flag], error) {
	obj, err := m.GetWithoutIDMixin.Get(opts...)
	if err != nil || obj == nil {
		return base.Optional[*Flag]{}, err
	}
	return base.Some(obj.(*Flag)), nil
}
