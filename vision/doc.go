/*
Package vision 提供拍照、OCR 与图像检测。

Capturer 支持 rpicam-still、libcamera-still 与 camera-service 三种后端；
ServiceOCR 调用外部 OCR 服务；Orchestrator 以独立超时并发运行所有 Detector，
慢或失败的检测器只会得到中性结果 {paperPresent: false, motionScore: 0}。
*/
package vision
