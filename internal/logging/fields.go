package logging

import "github.com/sirupsen/logrus"

// BaseFields 构建 action + 配置路径等基础字段，便于不同入口复用。
func BaseFields(action, configPath string) logrus.Fields {
	return logrus.Fields{
		"action":     action,
		"configPath": configPath,
	}
}

// SlotFields 描述缓存槽的路由、上游与磁盘位置，供刷新/请求日志复用。
func SlotFields(route, upstream, cachePath string) logrus.Fields {
	return logrus.Fields{
		"route":      route,
		"upstream":   upstream,
		"cache_path": cachePath,
	}
}
