// Package parts sits outside the objects namespace. Its manager reaches
// GetMixin along two paths and declares no Get of its own.
package parts

import "example.com/gitlab/mixins"

type Part struct{}

func (p *Part) Attrs() map[string]any { return nil }

type PartManager struct {
	mixins.EditMixin
	mixins.DeleteMixin
	objCls *Part
}
