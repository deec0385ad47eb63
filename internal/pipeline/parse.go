package pipeline

import (
	"fmt"
	"strings"

	"github.com/vidscribe/backend/internal/models"
)

const (
	// maxKeyPoints caps how many bullet points are kept from a model response.
	maxKeyPoints = 7
	// maxTranscriptChars bounds the transcript text sent to the model.
	maxTranscriptChars = 4000
)

// parseSummaryResponse splits a model response into summary text and key
// points. The prompt asks for a SUMMARY: paragraph followed by a KEY POINTS:
// bullet list, but models drift, so this tolerates "Takeaways" as the list
// header and missing headers entirely. As a last resort any later paragraph
// with at least three lines is treated as the list; the sentinel value is
// stored when nothing parses.
func parseSummaryResponse(response string) (summary string, keyPoints []string) {
	response = strings.TrimSpace(response)

	upper := strings.ToUpper(response)
	summaryIdx := strings.Index(upper, "SUMMARY:")
	pointsIdx, pointsHeader := findPointsHeader(upper)

	switch {
	case summaryIdx >= 0 && pointsIdx > summaryIdx:
		summary = strings.TrimSpace(response[summaryIdx+len("SUMMARY:") : pointsIdx])
		keyPoints = parseBullets(response[pointsIdx+pointsHeader:])
	case pointsIdx >= 0:
		summary = strings.TrimSpace(response[:pointsIdx])
		keyPoints = parseBullets(response[pointsIdx+pointsHeader:])
	case summaryIdx >= 0:
		summary = strings.TrimSpace(response[summaryIdx+len("SUMMARY:"):])
	default:
		paragraphs := strings.Split(response, "\n\n")
		summary = strings.TrimSpace(paragraphs[0])
		for _, p := range paragraphs[1:] {
			if lines := nonEmptyLines(p); len(lines) >= 3 {
				keyPoints = parseBullets(p)
				break
			}
		}
	}

	if summary == "" {
		summary = response
	}
	if len(keyPoints) == 0 {
		keyPoints = []string{models.NoKeyPoints}
	}
	return summary, keyPoints
}

// findPointsHeader locates the bullet-list header and returns its offset and
// length, or (-1, 0).
func findPointsHeader(upper string) (int, int) {
	for _, header := range []string{"KEY POINTS:", "TAKEAWAYS:"} {
		if idx := strings.Index(upper, header); idx >= 0 {
			return idx, len(header)
		}
	}
	return -1, 0
}

func nonEmptyLines(block string) []string {
	var lines []string
	for _, line := range strings.Split(block, "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// parseBullets extracts up to maxKeyPoints bullet or numbered lines.
func parseBullets(block string) []string {
	var points []string
	for _, line := range strings.Split(block, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		line = strings.TrimLeft(line, "-*• \t")
		line = trimNumberPrefix(line)
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		points = append(points, line)
		if len(points) == maxKeyPoints {
			break
		}
	}
	return points
}

// trimNumberPrefix strips leading "1." / "2)" style ordinals.
func trimNumberPrefix(line string) string {
	i := 0
	for i < len(line) && line[i] >= '0' && line[i] <= '9' {
		i++
	}
	if i > 0 && i < len(line) && (line[i] == '.' || line[i] == ')') {
		return line[i+1:]
	}
	return line
}

// parseDraftResponse splits a model response into a post title and body.
// The prompt asks for a TITLE: line followed by the post text; without the
// header the first line becomes the title.
func parseDraftResponse(response string) (title, content string) {
	response = strings.TrimSpace(response)
	if response == "" {
		return "", ""
	}

	upper := strings.ToUpper(response)
	if idx := strings.Index(upper, "TITLE:"); idx >= 0 {
		rest := response[idx+len("TITLE:"):]
		if nl := strings.Index(rest, "\n"); nl >= 0 {
			title = strings.TrimSpace(rest[:nl])
			content = strings.TrimSpace(rest[nl+1:])
		} else {
			title = strings.TrimSpace(rest)
		}
		content = strings.TrimSpace(strings.TrimPrefix(content, "POST:"))
		return title, content
	}

	if nl := strings.Index(response, "\n"); nl >= 0 {
		return strings.TrimSpace(response[:nl]), strings.TrimSpace(response[nl+1:])
	}
	return response, response
}

// fallbackHashtags close every template draft.
const fallbackHashtags = "#video #newrelease #learning"

// fallbackDraft builds a deterministic template post when generation failed
// or its output was unusable.
func fallbackDraft(videoTitle string, summary *models.Summary, videoURL string) (title, content string) {
	title = "New video: " + videoTitle

	var b strings.Builder
	fmt.Fprintf(&b, "We just published a new video: %s\n", videoTitle)
	if s := strings.TrimSpace(summary.SummaryText); s != "" {
		if len(s) > 300 {
			s = s[:300] + "..."
		}
		b.WriteString("\n" + s + "\n")
	}
	points := summary.KeyPoints
	if len(points) > 3 {
		points = points[:3]
	}
	if len(points) > 0 && points[0] != models.NoKeyPoints {
		b.WriteString("\n")
		for _, p := range points {
			fmt.Fprintf(&b, "- %s\n", p)
		}
	}
	fmt.Fprintf(&b, "\nWatch the full video: %s\n\n%s", videoURL, fallbackHashtags)
	return title, b.String()
}

// ensureVideoURL appends the video link when the post body does not already
// contain it. Every draft that reaches a reviewer links back to its video.
func ensureVideoURL(content, videoURL string) string {
	if strings.Contains(content, videoURL) {
		return content
	}
	return content + "\n\nWatch the full video: " + videoURL
}

// truncateTranscript bounds the text sent to the model.
func truncateTranscript(text string) string {
	if len(text) <= maxTranscriptChars {
		return text
	}
	return text[:maxTranscriptChars]
}
