package ai

import (
	"fmt"
	"strings"
)

// MaxInterviewQuestions はプラン生成前のインタビューで聞く質問数です。
const MaxInterviewQuestions = 10

// InterviewCompleteMarker はインタビュー終了時にモデルが付ける目印です。
const InterviewCompleteMarker = "[INTERVIEW_COMPLETE]"

// interviewTopics は質問の順番です。
var interviewTopics = [MaxInterviewQuestions]string{
	"current skill or starting point related to the goal",
	"why the goal matters and what motivates them",
	"which days and times they can realistically work on it",
	"tools, money or people they already have access to",
	"previous attempts and what happened",
	"the biggest obstacle they expect",
	"how they will know the goal is achieved",
	"how they prefer to learn or work (reading, doing, courses, mentors)",
	"fixed dates or milestones that constrain the schedule",
	"who or what will keep them accountable",
}

// BuildInterviewPrompt はインタビューの次の発話を求めるシステムプロンプトを返します。
// questionCount はこれまでに聞いた質問数です。
func BuildInterviewPrompt(goal string, questionCount int) string {
	var sb strings.Builder
	sb.WriteString("You are a friendly planning coach interviewing a user before building a plan for their goal.\n")
	fmt.Fprintf(&sb, "The user's goal: %s\n\n", strings.TrimSpace(goal))
	fmt.Fprintf(&sb, "The interview follows a fixed script of %d questions:\n", MaxInterviewQuestions)
	for i, topic := range interviewTopics {
		fmt.Fprintf(&sb, "%d. Ask about the %s.\n", i+1, topic)
	}
	sb.WriteString("\n")

	if questionCount < 0 {
		questionCount = 0
	}
	if questionCount >= MaxInterviewQuestions {
		sb.WriteString("All questions have been asked. Thank the user, summarize what you learned in 3 to 5 short bullet points, ")
		fmt.Fprintf(&sb, "and end your message with %s on its own line. Do not ask another question.\n", InterviewCompleteMarker)
		return sb.String()
	}

	next := questionCount + 1
	fmt.Fprintf(&sb, "You have asked %d questions so far. ", questionCount)
	fmt.Fprintf(&sb, "Briefly acknowledge the user's last answer if there is one, then ask question %d of %d (%s). ",
		next, MaxInterviewQuestions, interviewTopics[questionCount])
	sb.WriteString("Ask exactly one question and reply in the language the user writes in.\n")
	return sb.String()
}

// IsInterviewComplete はインタビューが終了したかを判定します。
func IsInterviewComplete(questionCount int, message string) bool {
	return questionCount >= MaxInterviewQuestions || strings.Contains(message, InterviewCompleteMarker)
}
