package enums

type ContentType string

const (
	ContentTypeComment           ContentType = "comment"
	ContentTypeMomentDescription ContentType = "moment_description"
	ContentTypeOtherText         ContentType = "other_text"
)

func (t ContentType) Valid() bool {
	switch t {
	case ContentTypeComment, ContentTypeMomentDescription, ContentTypeOtherText:
		return true
	default:
		return false
	}
}
