package model

import (
	"slices"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// IDList is a JSONB array of ids, the storage shape of both sides of the
// user/project membership relation.
type IDList = datatypes.JSONSlice[uuid.UUID]

// NewIDList returns a non-nil list so it never serializes as JSON null.
func NewIDList(ids ...uuid.UUID) IDList {
	list := make(IDList, 0, len(ids))
	for _, id := range ids {
		list, _ = AddID(list, id)
	}
	return list
}

func ContainsID(list IDList, id uuid.UUID) bool {
	return slices.Contains(list, id)
}

// AddID appends id unless it is already present.
func AddID(list IDList, id uuid.UUID) (IDList, bool) {
	if ContainsID(list, id) {
		return list, false
	}
	if list == nil {
		list = IDList{}
	}
	return append(list, id), true
}

// RemoveID drops every occurrence of id, so a list that picked up a duplicate
// is repaired on the next removal.
func RemoveID(list IDList, id uuid.UUID) (IDList, bool) {
	out := make(IDList, 0, len(list))
	for _, v := range list {
		if v != id {
			out = append(out, v)
		}
	}
	return out, len(out) != len(list)
}
