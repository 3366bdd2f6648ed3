// Package config 提供 aceceed-edge 的配置管理功能。
//
// 支持从 YAML 文件、.env 文件和 ACECEED_* 环境变量加载配置，
// 并兼容早期部署脚本使用的短变量名（ACECEED_STT_BIN 等）。
package config
