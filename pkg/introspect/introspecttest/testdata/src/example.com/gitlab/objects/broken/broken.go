package broken

import "example.com/gitlab/mixins"

type BrokenManager struct { // want `type example.com/gitlab/objects/broken.BrokenManager has capability get-by-id but declares no "objCls" field`
	mixins.GetMixin
}
