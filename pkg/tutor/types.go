package tutor

import "encoding/json"

// CourseRequest starts a course or single-topic lecture stream.
type CourseRequest struct {
	Query    string `json:"query"`
	ThreadID string `json:"thread_id"`
}

// LessonRequest streams one lesson of a known course.
type LessonRequest struct {
	Topic       string `json:"topic"`
	LessonIndex int    `json:"lesson_index"`
	LessonTitle string `json:"lesson_title"`
}

// DoubtRequest asks a question about the current lesson.
type DoubtRequest struct {
	Doubt         string `json:"doubt"`
	LessonContext string `json:"lesson_context"`
	Topic         string `json:"topic"`
	ThreadID      string `json:"thread_id"`
}

// DoubtAnswer is the tutor's reply to a doubt.
type DoubtAnswer struct {
	Answer string `json:"answer"`
	Doubt  string `json:"doubt"`
	Topic  string `json:"topic"`
}

// NotesRequest asks for a PDF export of a lesson.
type NotesRequest struct {
	LessonContent string `json:"lesson_content"`
	Topic         string `json:"topic"`
	LessonTitle   string `json:"lesson_title"`
}

// Notes is a generated PDF document.
type Notes struct {
	Filename string
	Data     []byte
}

// QuizRequest asks the backend to generate a quiz for a lesson.
type QuizRequest struct {
	LessonContent string `json:"lesson_content"`
	Topic         string `json:"topic"`
	LessonTitle   string `json:"lesson_title"`
	LessonIndex   int    `json:"lesson_index"`
	UserID        string `json:"user_id"`
}

// Question types.
const (
	QuestionMCQ    = "mcq"
	QuestionCoding = "coding"
)

// Question is one generated quiz question. CorrectAnswer is an option index
// for MCQs and source text for coding questions.
type Question struct {
	Question       string          `json:"question"`
	Type           string          `json:"type"`
	Options        []string        `json:"options,omitempty"`
	ExpectedOutput string          `json:"expected_output,omitempty"`
	CorrectAnswer  json.RawMessage `json:"correct_answer,omitempty"`
	Explanation    string          `json:"explanation"`
	Difficulty     string          `json:"difficulty"`
}

// Quiz is a generated quiz.
type Quiz struct {
	QuizID         string     `json:"quiz_id"`
	Questions      []Question `json:"questions"`
	TotalQuestions int        `json:"total_questions"`
}

// Answer is the learner's answer to the question at QuestionIndex.
type Answer struct {
	QuestionIndex int `json:"question_index"`
	Answer        any `json:"answer"`
}

// QuizSubmission carries the learner's answers.
type QuizSubmission struct {
	QuizID      string   `json:"quiz_id"`
	UserID      string   `json:"user_id"`
	Answers     []Answer `json:"answers"`
	TimeSpent   int      `json:"time_spent"`
	LessonIndex int      `json:"lesson_index"`
	Topic       string   `json:"topic"`
}

// Recommendation values returned after grading.
const (
	RecommendReview    = "review"
	RecommendContinue  = "continue"
	RecommendFastTrack = "fast_track"
)

// QuestionResult is the graded outcome of one question.
type QuestionResult struct {
	QuestionIndex int             `json:"question_index"`
	Question      string          `json:"question"`
	UserAnswer    json.RawMessage `json:"user_answer"`
	CorrectAnswer json.RawMessage `json:"correct_answer"`
	IsCorrect     bool            `json:"is_correct"`
	Explanation   string          `json:"explanation"`
}

// QuizResult is the graded quiz.
type QuizResult struct {
	Score           float64          `json:"score"`
	CorrectAnswers  int              `json:"correct_answers"`
	TotalQuestions  int              `json:"total_questions"`
	DetailedResults []QuestionResult `json:"detailed_results"`
	Recommendation  string           `json:"recommendation"`
	TimeSpent       int              `json:"time_spent"`
}

// RecommendationMessage renders the learner-facing summary for a graded quiz.
func (r *QuizResult) RecommendationMessage() string {
	switch r.Recommendation {
	case RecommendReview:
		return "Consider reviewing this lesson."
	case RecommendFastTrack:
		return "Excellent! You're ready for more."
	default:
		return "Good progress! Continue to the next lesson."
	}
}

// DashboardRequest selects the learner (and optionally topic) to summarize.
type DashboardRequest struct {
	UserID string `json:"user_id"`
	Topic  string `json:"topic,omitempty"`
}

// Attempt is one recorded quiz attempt.
type Attempt struct {
	QuizID         string  `json:"quiz_id"`
	Topic          string  `json:"topic"`
	LessonIndex    int     `json:"lesson_index"`
	Score          float64 `json:"score"`
	CorrectAnswers int     `json:"correct_answers"`
	TotalQuestions int     `json:"total_questions"`
	TimeSpent      int     `json:"time_spent"`
	SubmittedAt    string  `json:"submitted_at"`
}

// Dashboard summarizes quiz performance.
type Dashboard struct {
	TotalQuizzes         int                `json:"total_quizzes"`
	AverageScore         float64            `json:"average_score"`
	CompletionPercentage float64            `json:"completion_percentage"`
	WeakAreas            []string           `json:"weak_areas"`
	StrongAreas          []string           `json:"strong_areas"`
	RecentAttempts       []Attempt          `json:"recent_attempts"`
	Recommendations      []string           `json:"recommendations"`
	TopicScores          map[string]float64 `json:"topic_scores,omitempty"`
}

// RoadmapRequest asks for a learning roadmap for a skill.
type RoadmapRequest struct {
	Skill string `json:"skill"`
}

// ExecRequest runs a program in the backend sandbox.
type ExecRequest struct {
	Code      string  `json:"code"`
	Language  string  `json:"language"`
	InputData *string `json:"input_data"`
	Timeout   int     `json:"timeout"`
}

// ExecResult is the sandbox outcome. A failed run is still a result; Error
// holds compiler or runtime diagnostics.
type ExecResult struct {
	Success       bool    `json:"success"`
	Output        string  `json:"output"`
	Error         string  `json:"error"`
	ReturnCode    int     `json:"return_code"`
	ExecutionTime float64 `json:"execution_time"`
}
