// Command listingrec 运行房源相似推荐服务，也可以在命令行里直接搜索 / 推荐。
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
