package notification

type ClearResponse struct {
	Deleted int64 `json:"deleted"`
}
