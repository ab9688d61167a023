package logging

import "github.com/sirupsen/logrus"

// BaseFields 构建 action + 配置路径等基础字段，便于不同入口复用。
func BaseFields(action, configPath string) logrus.Fields {
	return logrus.Fields{
		"action":     action,
		"configPath": configPath,
	}
}

// RequestFields 提供访问日志字段，管线在每个请求结束时输出。
func RequestFields(requestID, method, path string, status int, elapsedMs float64) logrus.Fields {
	return logrus.Fields{
		"action":     "request",
		"request_id": requestID,
		"method":     method,
		"path":       path,
		"status":     status,
		"elapsed_ms": elapsedMs,
	}
}

// StoreFields 描述一次落盘/加载动作涉及的记录与文件。
func StoreFields(action, key, file string) logrus.Fields {
	return logrus.Fields{
		"action": action,
		"key":    key,
		"file":   file,
	}
}
