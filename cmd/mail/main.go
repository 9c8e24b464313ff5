package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sysu-ecnc-dev/shift-month/backend/internal/config"
	"github.com/sysu-ecnc-dev/shift-month/backend/internal/mailer"
	"github.com/sysu-ecnc-dev/shift-month/backend/internal/mq"
	"github.com/wneessen/go-mail"
)

func main() {
	/**********************************************
	 * 创建 logger
	 **********************************************/
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	/**********************************************
	 * 读取配置文件
	 **********************************************/
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("无法读取配置文件", "error", err)
		return
	}

	/**********************************************
	 * 解析邮件模板
	 **********************************************/
	renderer, err := mailer.NewRenderer(cfg.Email.TemplateDir, cfg.Email.SMTP.Username)
	if err != nil {
		logger.Error("无法加载邮件模板", "error", err)
		return
	}

	/**********************************************
	 * 创建邮件客户端
	 **********************************************/
	client, err := mail.NewClient(cfg.Email.SMTP.Host,
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithSSL(),
		mail.WithPort(cfg.Email.SMTP.Port),
		mail.WithUsername(cfg.Email.SMTP.Username),
		mail.WithPassword(cfg.Email.SMTP.Password),
	)
	if err != nil {
		logger.Error("无法创建邮件客户端", "error", err)
		return
	}
	defer client.Close()

	// 验证邮件客户端是否连接成功
	dialCtx, dialCancel := context.WithTimeout(context.Background(), time.Duration(cfg.Email.SMTP.DialTimeout)*time.Second)
	defer dialCancel()
	if err := client.DialWithContext(dialCtx); err != nil {
		logger.Error("无法连接到邮件服务器", "error", err)
		return
	}

	/**********************************************
	 * 连接 RabbitMQ
	 **********************************************/
	conn, err := amqp.Dial(cfg.RabbitMQ.DSN)
	if err != nil {
		logger.Error("无法连接到 RabbitMQ", "error", err)
		return
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		logger.Error("无法创建通道", "error", err)
		return
	}
	defer ch.Close()

	q, err := mq.DeclareQueue(ch, cfg.RabbitMQ.Queue)
	if err != nil {
		logger.Error("无法声明队列", "error", err)
		return
	}

	// 一次只取一条，发送失败重新入队时不会堆积在本地
	if err := ch.Qos(1, 0, false); err != nil {
		logger.Error("无法设置预取数量", "error", err)
		return
	}

	msgs, err := ch.Consume(
		q.Name, // 队列
		"",     // 消费者标识，由 RabbitMQ 自动分配
		false,  // 手动确认
		false,  // 非独占
		false,  // RabbitMQ 不支持 noLocal
		false,  // 等待 RabbitMQ 响应
		nil,
	)
	if err != nil {
		logger.Error("无法消费消息", "error", err)
		return
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	ctx, cancel := context.WithCancel(context.Background())
	wg := sync.WaitGroup{}

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case delivery, ok := <-msgs:
				if !ok {
					logger.Error("消息通道已关闭")
					return
				}
				handleDelivery(ctx, logger, renderer, client, delivery)
			}
		}
	}()

	logger.Info("等待消息...（按 CTRL+C 退出）", "queue", q.Name)
	<-sigChan

	logger.Info("正在关闭 mail worker...")
	cancel()
	wg.Wait()
	logger.Info("mail worker 已成功关闭")
}

// handleDelivery 消息本身有问题时直接丢弃，发送失败时重新入队
func handleDelivery(ctx context.Context, logger *slog.Logger, renderer *mailer.Renderer, client *mail.Client, delivery amqp.Delivery) {
	logger = logger.With("messageID", delivery.MessageId, "type", delivery.Type)

	msg, err := renderer.Build(delivery.Body)
	if err != nil {
		if errors.Is(err, mailer.ErrUnknownType) {
			logger.Error("不支持的邮件类型", "error", err)
		} else {
			logger.Error("无法构建邮件", "error", err)
		}
		_ = delivery.Nack(false, false)
		return
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		logger.Error("邮件发送失败", "error", err)
		_ = delivery.Nack(false, true)
		return
	}

	logger.Info("邮件已发送")
	_ = delivery.Ack(false)
}
