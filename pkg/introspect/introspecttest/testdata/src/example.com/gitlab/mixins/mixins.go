// Package mixins holds the capability types managers embed.
package mixins

import "example.com/gitlab/base"

// GetMixin grants retrieval by identifier.
type GetMixin struct {
	base.RESTManager
}

func (m *GetMixin) Get(id string, opts ...base.RequestOption) (base.RESTObject, error) {
	return nil, nil
}

// GetWithoutIDMixin grants retrieval of a singleton resource.
type GetWithoutIDMixin struct {
	base.RESTManager
}

func (m *GetWithoutIDMixin) Get(opts ...base.RequestOption) (base.RESTObject, error) {
	return nil, nil
}

// ListMixin grants listing.
type ListMixin struct {
	base.RESTManager
}

func (m *ListMixin) List(opts ...base.RequestOption) ([]base.RESTObject, error) {
	return nil, nil
}

// RetrieveMixin grants retrieval by identifier through GetMixin.
type RetrieveMixin struct {
	GetMixin
	ListMixin
}

// EditMixin and DeleteMixin both reach GetMixin.
type EditMixin struct {
	*GetMixin
}

type DeleteMixin struct {
	GetMixin
}
