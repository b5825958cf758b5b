package payloads

// ImageCleanupPayload описывает задачу на удаление картинки поста из файлового хранилища
// через RabbitMQ.
type ImageCleanupPayload struct {
	ObjectKey string `json:"object_key"`
	PostID    string `json:"post_id,omitempty"`
	Reason    string `json:"reason"`
}

const (
	ReasonPostDeleted   = "post_deleted"
	ReasonImageReplaced = "image_replaced"
	ReasonWriteFailed   = "write_failed"
)
