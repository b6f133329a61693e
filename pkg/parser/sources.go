package parser

// SourceKind groups allow-listed apps that share notification wording.
type SourceKind string

const (
	Alipay SourceKind = "alipay"
	WeChat SourceKind = "wechat"
	Bank   SourceKind = "bank"
)

// AnySource in a rule's sources matches every allow-listed kind.
const AnySource SourceKind = "*"

// DefaultSources is the built-in allow-list of Android package ids.
var DefaultSources = map[string]SourceKind{
	"com.eg.android.AlipayGphone": Alipay,
	"com.tencent.mm":              WeChat,
	"cmb.pb":                      Bank,
	"com.icbc":                    Bank,
	"com.ccb.android":             Bank,
	"com.chinamworld.main":        Bank,
}

func knownKind(k SourceKind) bool {
	switch k {
	case Alipay, WeChat, Bank, AnySource:
		return true
	}
	return false
}
