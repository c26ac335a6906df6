package app

// Command はアプリケーションの起動モードを表す。
type Command string

const (
	// CommandDevserver は開発用スタブバックエンドを起動することを示す。
	CommandDevserver Command = "devserver"
	// CommandWhoami はセッションを初期化して結果を表示することを示す。
	CommandWhoami Command = "whoami"
	// CommandHealthcheck はヘルスチェックを実行することを示す。
	// distroless環境でのDockerヘルスチェック用。
	CommandHealthcheck Command = "healthcheck"
	// CommandHelp は使い方を表示することを示す。
	CommandHelp Command = "help"
)

// ParseCommand はコマンドライン引数からサブコマンドを解析する。
// 引数が空またはサポート外のコマンドの場合はCommandHelpを返す。
func ParseCommand(args []string) Command {
	if len(args) == 0 {
		return CommandHelp
	}

	switch args[0] {
	case "devserver":
		return CommandDevserver
	case "whoami":
		return CommandWhoami
	case "healthcheck":
		return CommandHealthcheck
	default:
		return CommandHelp
	}
}
