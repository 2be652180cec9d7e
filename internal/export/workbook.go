// Package export writes recorded playtest results to an Excel workbook.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"playtesting-bot/internal/domain"
)

const (
	buzzSheet  = "Buzzes"
	bonusSheet = "Bonuses"
)

// Opener reveals sealed answer notes.
type Opener interface {
	Open(serverID, sealed string) (string, error)
}

// WriteWorkbook writes one sheet of tossup buzzes and one of bonus parts.
// Notes that cannot be opened are left blank.
func WriteWorkbook(w io.Writer, serverID string, results domain.ResultExport, opener Opener) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", buzzSheet); err != nil {
		return err
	}
	if _, err := f.NewSheet(bonusSheet); err != nil {
		return err
	}

	buzzRows := make([][]interface{}, 0, len(results.Buzzes))
	for _, b := range results.Buzzes {
		buzzRows = append(buzzRows, []interface{}{
			b.QuestionID, b.AuthorID, b.UserID, b.ClueIndex + 1, b.CharactersRevealed, b.Value,
			sanitizeForExcel(openNote(opener, serverID, b.Note)),
		})
	}
	err := writeSheet(f, buzzSheet,
		[]interface{}{"Question", "Author", "Player", "Clue", "Characters Revealed", "Value", "Answer Given"}, buzzRows)
	if err != nil {
		return err
	}

	bonusRows := make([][]interface{}, 0, len(results.BonusParts))
	for _, p := range results.BonusParts {
		bonusRows = append(bonusRows, []interface{}{
			p.QuestionID, p.AuthorID, p.UserID, p.Part, p.Value,
			sanitizeForExcel(openNote(opener, serverID, p.Note)),
		})
	}
	err = writeSheet(f, bonusSheet,
		[]interface{}{"Question", "Author", "Player", "Part", "Value", "Answer Given"}, bonusRows)
	if err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet string, headers []interface{}, rows [][]interface{}) error {
	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return fmt.Errorf("stream %s: %w", sheet, err)
	}
	if err := sw.SetRow("A1", headers); err != nil {
		return fmt.Errorf("%s headers: %w", sheet, err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, row); err != nil {
			return fmt.Errorf("%s row %d: %w", sheet, i+2, err)
		}
	}
	return sw.Flush()
}

func openNote(opener Opener, serverID, note string) string {
	if note == "" || opener == nil {
		return note
	}
	plain, err := opener.Open(serverID, note)
	if err != nil {
		return ""
	}
	return plain
}

// sanitizeForExcel guards against formula injection in spreadsheet apps.
func sanitizeForExcel(s string) string {
	if len(s) == 0 {
		return s
	}
	if s[0] == '=' || s[0] == '+' || s[0] == '-' || s[0] == '@' || s[0] == '\t' || s[0] == '\r' {
		return "'" + s
	}
	return s
}
