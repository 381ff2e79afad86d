package render

import (
	"fmt"
	"io"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/fatih/color"

	"github.com/timertimertimer/kfudao/internal/domain/models"
	"github.com/timertimertimer/kfudao/internal/usecase"
)

// TransactionRenderer renders governor transactions
type TransactionRenderer struct {
	out io.Writer
}

// NewTransactionRenderer creates a new transaction renderer
func NewTransactionRenderer(out io.Writer) *TransactionRenderer {
	return &TransactionRenderer{out: out}
}

// RenderPrepared shows what would be sent; call is the decoded call data
func (r *TransactionRenderer) RenderPrepared(tx *usecase.PreparedTx, call string) error {
	headerStyle.Fprintln(r.out, "Transaction")
	fmt.Fprintf(r.out, "  From:  %s\n", addressStyle.Sprint(tx.From))
	fmt.Fprintf(r.out, "  To:    %s\n", addressStyle.Sprint(tx.To))
	if call != "" {
		fmt.Fprintf(r.out, "  Call:  %s\n", color.New(color.FgCyan).Sprint(call))
	}
	fmt.Fprintf(r.out, "  Data:  %s\n", color.New(color.Faint).Sprint(hexutil.Encode(tx.Data)))
	return nil
}

// RenderResult shows the hash returned by the wallet
func (r *TransactionRenderer) RenderResult(result *models.TransactionResult, what string) error {
	fmt.Fprintln(r.out, FormatSuccess(fmt.Sprintf("%s submitted", what)))
	fmt.Fprintf(r.out, "  Tx:    %s\n", result.Hash)
	return nil
}
