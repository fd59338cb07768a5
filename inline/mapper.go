package inline

import (
	"github.com/Paranoid-AF/ghostline/editor"
	"github.com/Paranoid-AF/ghostline/offset"
	"github.com/Paranoid-AF/ghostline/service"
)

// InlineCompletion is a completion ready for display.
type InlineCompletion struct {
	// Text is inserted in place of Range.
	Text  string       `json:"text"`
	Range editor.Range `json:"range"`
	// CompletionID is the acceptance token passed back to AcceptedLastCompletion.
	CompletionID string `json:"completion_id"`
}

// mapItem converts a wire item into an InlineCompletion. It returns false when
// the item has no completion text or no range.
func mapItem(item service.CompletionItem, doc editor.Document, units []uint16) (InlineCompletion, bool) {
	if item.Completion == nil || item.Range == nil {
		return InlineCompletion{}, false
	}

	startUnits := offset.BytesToCodeUnits(units, int(item.Range.StartOffset))
	endUnits := offset.BytesToCodeUnits(units, int(item.Range.EndOffset))

	return InlineCompletion{
		Text:         item.Completion.Text,
		Range:        editor.NewRange(doc.PositionAt(startUnits), doc.PositionAt(endUnits)),
		CompletionID: item.Completion.CompletionID,
	}, true
}
