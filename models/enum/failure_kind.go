package enum

// FailureKind 表示購物車操作失敗的類型
type FailureKind string

const (
	FailureKindAdditionFailed FailureKind = "addition_failed"
	FailureKindRemovalFailed  FailureKind = "removal_failed"
	FailureKindUpdateFailed   FailureKind = "update_failed"
	FailureKindOutOfStock     FailureKind = "out_of_stock"
)

var failureMessages = map[FailureKind]string{
	FailureKindAdditionFailed: "Erro na adição do produto",
	FailureKindRemovalFailed:  "Erro na remoção do produto",
	FailureKindUpdateFailed:   "Erro na alteração de quantidade do produto",
	FailureKindOutOfStock:     "Quantidade solicitada fora de estoque",
}

// Message returns the fixed user-facing alert text for the kind.
func (k FailureKind) Message() string {
	if msg, ok := failureMessages[k]; ok {
		return msg
	}
	return "Erro inesperado no carrinho"
}

func (k FailureKind) String() string {
	return string(k)
}
