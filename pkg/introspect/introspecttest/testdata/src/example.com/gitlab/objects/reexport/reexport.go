// Package reexport makes managers from other packages visible again.
package reexport

import (
	"example.com/gitlab/objects/gadgets"
	"example.com/gitlab/objects/widgets"
)

type (
	WidgetManager = widgets.WidgetManager
	GadgetManager = gadgets.GadgetManager
)
