package models

// ChatRequest is the body of a conversational POST /api/chat call.
type ChatRequest struct {
	Message             string `json:"message"`
	ConversationHistory string `json:"conversation_history"`
}

// TopicRequest is the body of the POST /api/chat call issued when a topic is picked. Message is
// always empty.
type TopicRequest struct {
	Message     string `json:"message"`
	TopicID     string `json:"topicId"`
	Description string `json:"description"`
}

// ChatResponse is the successful reply of POST /api/chat.
type ChatResponse struct {
	Response string `json:"response"`
}

// TranscribeResponse is the successful reply of POST /api/transcribe.
type TranscribeResponse struct {
	Transcription string `json:"transcription"`
}

// ErrorResponse is the body the backend sends with non-2xx statuses.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// AudioFormField is the multipart field carrying a recording.
const AudioFormField = "audio_data"
