package ledger

import "strconv"

const (
	TxTypePayment    = "Payment"
	TxTypeAccountSet = "AccountSet"
	TxTypeTrustSet   = "TrustSet"
	TxTypeNFTMint    = "NFTokenMint"
)

const DropsPerXRP = 1_000_000

// TrustLimit is the ceiling requested when a stablecoin trust line is first
// established.
const TrustLimit = "1000000000"

type AccountInfo struct {
	Address      string
	Sequence     uint32
	BalanceDrops int64
	Domain       string
}

type Memo struct {
	Type string
	Data string
}

// Amount is either native (drops, Currency empty) or an issued asset.
type Amount struct {
	Currency string
	Issuer   string
	Value    string
}

func NativeAmount(drops int64) Amount {
	return Amount{Value: strconv.FormatInt(drops, 10)}
}

func IssuedAmount(currency, issuer, value string) Amount {
	return Amount{Currency: currency, Issuer: issuer, Value: value}
}

func (a Amount) IsNative() bool {
	return a.Currency == ""
}

type Transaction struct {
	Hash        string
	Type        string
	Account     string
	Destination string
	Amount      Amount
	Memos       []Memo
	Validated   bool
}

type TrustLine struct {
	Currency string
	Issuer   string
	Balance  string
	Limit    string
}

type SubmitResult struct {
	Hash         string
	EngineResult string
}
