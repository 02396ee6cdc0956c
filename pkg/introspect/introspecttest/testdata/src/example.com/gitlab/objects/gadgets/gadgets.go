package gadgets

import "example.com/gitlab/mixins"

type Gadget struct{}

func (g *Gadget) Attrs() map[string]any { return nil }

type GadgetManager struct { // want `type definition for "GadgetManager" in file ".*gadgets.go" must define a "Get" method returning \*gadgets.Gadget but found base.RESTObject`
	mixins.RetrieveMixin
	objCls *Gadget
}
