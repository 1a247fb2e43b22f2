// Command kakeibo は家計簿APIサーバーを起動する。
//
// 使い方:
//
//	kakeibo [serve]        APIサーバーを起動する
//	kakeibo migrate        データベースマイグレーションを実行する
//	kakeibo adduser ...    ユーザーを登録する
//	kakeibo healthcheck    /health を確認する（Dockerヘルスチェック用）
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	// distrolessイメージにはタイムゾーンDBがないため埋め込む
	_ "time/tzdata"

	"github.com/hitoshi/kakeibo/internal/app"
)

func main() {
	if err := app.Run(os.Stdout, os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
