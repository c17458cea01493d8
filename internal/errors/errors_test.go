package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/suite"
)

// ErrorsTestSuite 错误包测试套件
type ErrorsTestSuite struct {
	suite.Suite
}

// 测试创建新错误
func (suite *ErrorsTestSuite) TestNew() {
	// 测试基本错误创建
	err := New(ErrInvalidParam)
	suite.NotNil(err)
	suite.Equal(ErrInvalidParam, err.Code)
	suite.Equal("无效的参数", err.Message)
	suite.Empty(err.Details)

	// 测试带详情的错误
	err = New(ErrInvalidChoice, "choice=up")
	suite.NotNil(err)
	suite.Equal(ErrInvalidChoice, err.Code)
	suite.Equal("无效的按键选择", err.Message)
	suite.Equal("choice=up", err.Details)

	// 测试多个详情
	err = New(ErrTransportUnavailable, "连接失败", "主机: localhost", "端口: 5004")
	suite.Equal("连接失败; 主机: localhost; 端口: 5004", err.Details)
}

// 测试格式化错误创建
func (suite *ErrorsTestSuite) TestNewf() {
	err := Newf(ErrHardwareRead, "引脚 %d 读取失败", 4)
	suite.NotNil(err)
	suite.Equal(ErrHardwareRead, err.Code)
	suite.Equal("引脚 4 读取失败", err.Details)
}

// 测试错误包装
func (suite *ErrorsTestSuite) TestWrap() {
	// 包装标准错误
	originalErr := errors.New("原始错误")
	wrappedErr := Wrap(originalErr, ErrDatabaseQuery)
	suite.NotNil(wrappedErr)
	suite.Equal(ErrDatabaseQuery, wrappedErr.Code)
	suite.Equal("原始错误", wrappedErr.Details)
	suite.Equal(originalErr, wrappedErr.Cause)

	// 包装nil错误
	nilErr := Wrap(nil, ErrUnknown)
	suite.Nil(nilErr)

	// 包装已有的AppError
	appErr := New(ErrMalformedPayload, "缺少set_id")
	wrappedAppErr := Wrap(appErr, ErrInvalidParam, "额外信息")
	suite.Equal(ErrMalformedPayload, wrappedAppErr.Code) // 保留原始错误码
	suite.Contains(wrappedAppErr.Details, "额外信息")
}

// 测试格式化错误包装
func (suite *ErrorsTestSuite) TestWrapf() {
	originalErr := errors.New("连接超时")
	wrappedErr := Wrapf(originalErr, ErrHealthProbeFailed, "服务 %s 探测失败", "http://localhost:5004")
	suite.NotNil(wrappedErr)
	suite.Equal(ErrHealthProbeFailed, wrappedErr.Code)
	suite.Equal("服务 http://localhost:5004 探测失败", wrappedErr.Details)
	suite.Equal(originalErr, wrappedErr.Cause)
}

// 测试错误码判断
func (suite *ErrorsTestSuite) TestIs() {
	err := New(ErrMalformedPayload)
	suite.True(Is(err, ErrMalformedPayload))
	suite.False(Is(err, ErrNotFound))
	suite.False(Is(nil, ErrMalformedPayload))

	// 标准错误不匹配任何错误码
	stdErr := errors.New("标准错误")
	suite.False(Is(stdErr, ErrUnknown))
}

// 测试获取错误码
func (suite *ErrorsTestSuite) TestGetCode() {
	suite.Equal(ErrorCode(0), GetCode(nil))
	suite.Equal(ErrQueueClosed, GetCode(New(ErrQueueClosed)))
	suite.Equal(ErrUnknown, GetCode(errors.New("标准错误")))
}

// 测试HTTP状态码映射
func (suite *ErrorsTestSuite) TestHTTPStatus() {
	suite.Equal(400, New(ErrInvalidChoice).HTTPStatus())
	suite.Equal(400, New(ErrMalformedPayload).HTTPStatus())
	suite.Equal(404, New(ErrNotFound).HTTPStatus())
	suite.Equal(408, New(ErrTimeout).HTTPStatus())
	suite.Equal(503, New(ErrDatabaseConnect).HTTPStatus())
	suite.Equal(500, New(ErrUnknown).HTTPStatus())
}

// 测试可重试判断
func (suite *ErrorsTestSuite) TestIsRetryable() {
	suite.True(IsRetryable(New(ErrTransportUnavailable)))
	suite.True(IsRetryable(New(ErrHealthProbeFailed)))
	suite.False(IsRetryable(New(ErrMalformedPayload)))
	suite.False(IsRetryable(nil))
}

// 测试严重错误判断
func (suite *ErrorsTestSuite) TestIsCritical() {
	suite.True(IsCritical(New(ErrGPIOSetup)))
	suite.True(IsCritical(New(ErrDatabaseConnect)))
	suite.False(IsCritical(New(ErrHardwareRead)))
	suite.False(IsCritical(nil))
}

// 测试错误消息格式
func (suite *ErrorsTestSuite) TestErrorString() {
	err := New(ErrInvalidChoice)
	suite.Equal("[2001] 无效的按键选择", err.Error())

	err = New(ErrInvalidChoice, "choice=middle")
	suite.Equal("[2001] 无效的按键选择: choice=middle", err.Error())
}

// 测试错误解包
func (suite *ErrorsTestSuite) TestUnwrap() {
	originalErr := errors.New("底层错误")
	wrappedErr := Wrap(originalErr, ErrSerialPortRead)
	suite.Equal(originalErr, errors.Unwrap(wrappedErr))
	suite.True(errors.Is(wrappedErr, originalErr))
}

func TestErrorsTestSuite(t *testing.T) {
	suite.Run(t, new(ErrorsTestSuite))
}
