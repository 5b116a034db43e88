package types

type ContentType string

const (
	NONE ContentType = ""
	FORM ContentType = "application/x-www-form-urlencoded"
)
