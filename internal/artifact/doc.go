// Package artifact 管理会话期间产生的临时音频与图像文件。
package artifact
