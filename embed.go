// embed.go 资源嵌入声明
// 必须放在项目根目录（与 data/ 同级），//go:embed 只能嵌入当前包目录下的文件
package main

import "embed"

//go:embed data/feedcat.yaml
var dataFS embed.FS
