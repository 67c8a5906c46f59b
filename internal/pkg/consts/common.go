package consts

const (
	MimePrefixImage = "image"
)

const (
	MessagePageSize = 50
	SearchPageSize  = 20
)
