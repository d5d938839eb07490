// 自定义日志格式化器与分类日志记录函数
package logger

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// FormatTimestamp 格式化时间戳为统一的毫秒精度格式
// 返回格式："2006-01-02 15:04:05.000"
func FormatTimestamp(t time.Time) string {
	return t.Format("2006-01-02 15:04:05.000")
}

// NowFormatted 返回当前时间的格式化字符串
// 返回格式："2006-01-02 15:04:05.000"
func NowFormatted() string {
	return FormatTimestamp(time.Now())
}

// LogType 日志类型枚举
type LogType string

const (
	// AccessLog 访问日志 - 记录HTTP请求和API调用
	AccessLog LogType = "access"
	// BusinessLog 业务日志 - 记录业务操作（任务启动、完成、库存变动等）
	BusinessLog LogType = "business"
	// ErrorLog 错误日志 - 记录系统错误和异常
	ErrorLog LogType = "error"
	// SystemLog 系统日志 - 记录系统运行状态
	SystemLog LogType = "system"
	// AuditLog 审计日志 - 记录权限授予等安全相关操作
	AuditLog LogType = "audit"
)

// LogAccessRequest 记录HTTP访问日志
// 用于记录所有HTTP请求的详细信息，包括请求参数、响应时间、状态码等
func LogAccessRequest(c *gin.Context, startTime time.Time, requestID string, userID uint64) {
	if LoggerInstance == nil {
		return
	}

	responseTime := time.Since(startTime).Milliseconds()

	LoggerInstance.logger.WithFields(logrus.Fields{
		"type":          AccessLog,
		"method":        c.Request.Method,
		"path":          c.Request.URL.Path,
		"query":         c.Request.URL.RawQuery,
		"status_code":   c.Writer.Status(),
		"response_time": responseTime,
		"client_ip":     c.ClientIP(),
		"user_agent":    c.Request.UserAgent(),
		"user_id":       userID,
		"request_id":    requestID,
		"request_size":  c.Request.ContentLength,
		"response_size": int64(c.Writer.Size()),
	}).Info("HTTP request processed")
}

// LogBusinessOperation 记录业务操作日志
// 用于记录用户的业务操作，如任务启动、完成、重试、库存变动等
func LogBusinessOperation(operation string, userID uint64, username, clientIP, requestID, result, message string, extraFields map[string]interface{}) {
	if LoggerInstance == nil {
		return
	}

	fields := logrus.Fields{
		"type":       BusinessLog,
		"operation":  operation,
		"user_id":    userID,
		"username":   username,
		"client_ip":  clientIP,
		"result":     result,
		"message":    message,
		"request_id": requestID,
	}

	for k, v := range extraFields {
		fields[k] = v
	}

	// 根据结果选择日志级别
	if result == "success" {
		LoggerInstance.logger.WithFields(fields).Info(fmt.Sprintf("Business operation: %s", operation))
	} else {
		LoggerInstance.logger.WithFields(fields).Warn(fmt.Sprintf("Business operation failed: %s", operation))
	}
}

// LogBusinessError 记录业务错误日志
// 服务层和仓库层统一的错误记录入口
func LogBusinessError(err error, requestID string, userID uint64, clientIP, operation, method string, extraFields map[string]interface{}) {
	if LoggerInstance == nil || err == nil {
		return
	}

	fields := logrus.Fields{
		"type":       BusinessLog,
		"operation":  operation,
		"error":      err.Error(),
		"request_id": requestID,
		"user_id":    userID,
		"client_ip":  clientIP,
		"method":     method,
	}

	for k, v := range extraFields {
		fields[k] = v
	}

	LoggerInstance.logger.WithFields(fields).Warnf("Business operation error: %s", err.Error())
}

// LogError 记录错误日志
// 用于记录系统错误、异常和业务错误
func LogError(err error, requestID string, userID uint64, clientIP, path, method string, extraFields map[string]interface{}) {
	if LoggerInstance == nil || err == nil {
		return
	}

	fields := logrus.Fields{
		"type":       ErrorLog,
		"level":      "error",
		"error":      err.Error(),
		"request_id": requestID,
		"user_id":    userID,
		"client_ip":  clientIP,
		"path":       path,
		"method":     method,
	}

	for k, v := range extraFields {
		fields[k] = v
	}

	LoggerInstance.logger.WithFields(fields).Errorf("System error occurred: %s", err.Error())
}

// LogSystemEvent 记录系统事件日志
// 用于记录系统启动、关闭、组件状态变化等系统级事件
func LogSystemEvent(component, event, message string, level logrus.Level, extraFields map[string]interface{}) {
	if LoggerInstance == nil {
		return
	}

	fields := logrus.Fields{
		"type":      SystemLog,
		"component": component,
		"event":     event,
		"message":   message,
	}

	for k, v := range extraFields {
		fields[k] = v
	}

	LoggerInstance.logger.WithFields(fields).Log(level, message)
}

// LogAudit 记录审计日志
// 用于记录权限授予、权限回收等安全敏感操作
func LogAudit(userID uint64, username, action, resource, result, clientIP, requestID string, extraFields map[string]interface{}) {
	if LoggerInstance == nil {
		return
	}

	fields := logrus.Fields{
		"type":       AuditLog,
		"user_id":    userID,
		"username":   username,
		"action":     action,
		"resource":   resource,
		"result":     result,
		"client_ip":  clientIP,
		"request_id": requestID,
	}

	for k, v := range extraFields {
		fields[k] = v
	}

	LoggerInstance.logger.WithFields(fields).Info(fmt.Sprintf("Audit: %s %s", action, resource))
}
