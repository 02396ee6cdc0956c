package deep

import "example.com/gitlab/mixins"

type Deep struct{}

func (d *Deep) Attrs() map[string]any { return nil }

type DeepManager struct {
	mixins.GetMixin
	objCls *Deep
}
